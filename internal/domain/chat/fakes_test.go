package chat_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"helm-server/internal/domain/brain"
	"helm-server/internal/domain/chat"
	"helm-server/internal/domain/conversation"
	"helm-server/internal/domain/llm"
	"helm-server/internal/domain/study"
	"helm-server/internal/utils/platformerrors"
)

// fakeStudyRepo serves study records from in-memory maps.
type fakeStudyRepo struct {
	classes     map[string]*study.Class
	assignments map[string]*study.Assignment
	notes       map[string]*study.Note
	pdfs        map[string]*study.PDF
}

func newFakeStudyRepo() *fakeStudyRepo {
	return &fakeStudyRepo{
		classes:     make(map[string]*study.Class),
		assignments: make(map[string]*study.Assignment),
		notes:       make(map[string]*study.Note),
		pdfs:        make(map[string]*study.PDF),
	}
}

func (r *fakeStudyRepo) ClassesByIDs(ctx context.Context, userID string, ids []string) ([]*study.Class, error) {
	var out []*study.Class
	for _, id := range ids {
		if c, ok := r.classes[id]; ok && c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeStudyRepo) ClassByID(ctx context.Context, userID, id string) (*study.Class, error) {
	if c, ok := r.classes[id]; ok && c.UserID == userID {
		return c, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, "class not found", nil, "")
}

func (r *fakeStudyRepo) AssignmentsByIDs(ctx context.Context, userID string, ids []string) ([]*study.Assignment, error) {
	var out []*study.Assignment
	for _, id := range ids {
		if a, ok := r.assignments[id]; ok && a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeStudyRepo) NotesByIDs(ctx context.Context, userID string, ids []string) ([]*study.Note, error) {
	var out []*study.Note
	for _, id := range ids {
		if n, ok := r.notes[id]; ok && n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeStudyRepo) PDFsByIDs(ctx context.Context, userID string, ids []string) ([]*study.PDF, error) {
	var out []*study.PDF
	for _, id := range ids {
		if p, ok := r.pdfs[id]; ok && p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

// fakeBrainRepo is an in-memory brain.Repository keyed by scope.
type fakeBrainRepo struct {
	mu     sync.Mutex
	brains map[string]*brain.Brain
}

func newFakeBrainRepo() *fakeBrainRepo {
	return &fakeBrainRepo{brains: make(map[string]*brain.Brain)}
}

func brainKey(userID string, classID *string) string {
	if classID == nil {
		return userID + "/global"
	}
	return userID + "/" + *classID
}

func (r *fakeBrainRepo) seed(userID string, classID *string, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brains[brainKey(userID, classID)] = &brain.Brain{
		PublicID: fmt.Sprintf("brain_%d", len(r.brains)+1),
		UserID:   userID,
		ClassID:  classID,
		Type:     brain.TypeForScope(classID),
		Content:  content,
	}
}

func (r *fakeBrainRepo) FindByScope(ctx context.Context, userID string, classID *string) (*brain.Brain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.brains[brainKey(userID, classID)]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, "brain not found", nil, "")
}

func (r *fakeBrainRepo) Create(ctx context.Context, b *brain.Brain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := brainKey(b.UserID, b.ClassID)
	if _, exists := r.brains[key]; exists {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeConflict, "brain already exists", nil, "")
	}
	copied := *b
	r.brains[key] = &copied
	return nil
}

func (r *fakeBrainRepo) Update(ctx context.Context, b *brain.Brain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *b
	r.brains[brainKey(b.UserID, b.ClassID)] = &copied
	return nil
}

func (r *fakeBrainRepo) ListByUser(ctx context.Context, userID string) ([]*brain.Brain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*brain.Brain
	for _, b := range r.brains {
		if b.UserID == userID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

// scriptedStream replays chunks then a terminal error (io.EOF by default).
type scriptedStream struct {
	chunks   []string
	terminal error
	pos      int
	closed   bool
}

func (s *scriptedStream) Recv() (string, error) {
	if s.pos < len(s.chunks) {
		chunk := s.chunks[s.pos]
		s.pos++
		return chunk, nil
	}
	if s.terminal != nil {
		return "", s.terminal
	}
	return "", io.EOF
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

// fakeLLM scripts both completion and stream-establishment behavior.
type fakeLLM struct {
	mu sync.Mutex

	completeText string
	completeErr  error
	completeErrs []error // consumed one per Complete call
	completes    int

	establishErrs []error // consumed one per StreamCompletion call
	streamChunks  []string
	streamErr     error
	establishes   int
}

func (p *fakeLLM) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completes++
	if len(p.completeErrs) > 0 {
		err := p.completeErrs[0]
		p.completeErrs = p.completeErrs[1:]
		return "", err
	}
	if p.completeErr != nil {
		return "", p.completeErr
	}
	return p.completeText, nil
}

func (p *fakeLLM) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (llm.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.establishes++
	if len(p.establishErrs) > 0 {
		err := p.establishErrs[0]
		p.establishErrs = p.establishErrs[1:]
		return nil, err
	}
	return &scriptedStream{chunks: p.streamChunks, terminal: p.streamErr}, nil
}

func (p *fakeLLM) establishCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.establishes
}

// fakeConvRepo holds a fixed set of conversations.
type fakeConvRepo struct {
	mu      sync.Mutex
	byID    map[string]*conversation.Conversation
	touches int
}

func newFakeConvRepo(convs ...*conversation.Conversation) *fakeConvRepo {
	repo := &fakeConvRepo{byID: make(map[string]*conversation.Conversation)}
	for _, c := range convs {
		repo.byID[c.PublicID] = c
	}
	return repo
}

func (r *fakeConvRepo) Create(ctx context.Context, conv *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[conv.PublicID] = conv
	return nil
}

func (r *fakeConvRepo) FindByPublicID(ctx context.Context, userID, publicID string) (*conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv, ok := r.byID[publicID]; ok && conv.UserID == userID {
		return conv, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, "conversation not found", nil, "")
}

func (r *fakeConvRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*conversation.Conversation, int64, error) {
	return nil, 0, errors.New("not implemented")
}

func (r *fakeConvRepo) Update(ctx context.Context, conv *conversation.Conversation) error {
	return nil
}

func (r *fakeConvRepo) Touch(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touches++
	return nil
}

func (r *fakeConvRepo) Delete(ctx context.Context, userID, publicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, publicID)
	return nil
}

// fakeMsgRepo records messages in insertion order.
type fakeMsgRepo struct {
	mu       sync.Mutex
	messages []*conversation.Message
}

func (r *fakeMsgRepo) Create(ctx context.Context, msg *conversation.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = uint(len(r.messages) + 1)
	r.messages = append(r.messages, msg)
	return nil
}

func (r *fakeMsgRepo) ListByConversation(ctx context.Context, conversationID uint) ([]*conversation.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*conversation.Message
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (r *fakeMsgRepo) CountByConversation(ctx context.Context, conversationID uint) (int64, error) {
	msgs, _ := r.ListByConversation(ctx, conversationID)
	return int64(len(msgs)), nil
}

func (r *fakeMsgRepo) stored() []*conversation.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*conversation.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// fakeScheduler records scheduled jobs.
type fakeScheduler struct {
	mu   sync.Mutex
	jobs []chat.BrainUpdateJob
}

func (s *fakeScheduler) Schedule(ctx context.Context, job chat.BrainUpdateJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *fakeScheduler) scheduled() []chat.BrainUpdateJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.BrainUpdateJob, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// recordingObserver captures the event sequence of one turn.
type recordingObserver struct {
	messages []string
	done     bool
	errMsg   string
}

func (o *recordingObserver) OnMessage(text string) { o.messages = append(o.messages, text) }
func (o *recordingObserver) OnDone()               { o.done = true }
func (o *recordingObserver) OnError(message string) {
	o.errMsg = message
}
