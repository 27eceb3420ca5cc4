package brain_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"helm-server/internal/domain/brain"
	"helm-server/internal/domain/llm"
	"helm-server/internal/utils/platformerrors"
)

// fakeRepository is an in-memory brain.Repository keyed by scope.
type fakeRepository struct {
	mu      sync.Mutex
	brains  map[string]*brain.Brain
	updates int
	failOn  string // operation name that should fail
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{brains: make(map[string]*brain.Brain)}
}

func scopeKey(userID string, classID *string) string {
	if classID == nil {
		return userID + "/global"
	}
	return userID + "/" + *classID
}

func (r *fakeRepository) FindByScope(ctx context.Context, userID string, classID *string) (*brain.Brain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.brains[scopeKey(userID, classID)]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, "brain not found", nil, "")
}

func (r *fakeRepository) Create(ctx context.Context, b *brain.Brain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := scopeKey(b.UserID, b.ClassID)
	if _, exists := r.brains[key]; exists {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeConflict, "brain already exists", nil, "")
	}
	b.ID = uint(len(r.brains) + 1)
	copied := *b
	r.brains[key] = &copied
	return nil
}

func (r *fakeRepository) Update(ctx context.Context, b *brain.Brain) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn == "update" {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "update failed", nil, "")
	}
	r.updates++
	copied := *b
	r.brains[scopeKey(b.UserID, b.ClassID)] = &copied
	return nil
}

func (r *fakeRepository) ListByUser(ctx context.Context, userID string) ([]*brain.Brain, error) {
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

// fakeProvider returns scripted results per Complete call.
type fakeProvider struct {
	mu      sync.Mutex
	results []completionResult
	calls   int
}

type completionResult struct {
	text string
	err  error
}

func (p *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls >= len(p.results) {
		return "", errors.New("unexpected completion call")
	}
	result := p.results[p.calls]
	p.calls++
	return result.text, result.err
}

func (p *fakeProvider) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (llm.Stream, error) {
	return nil, errors.New("not implemented")
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestStore_GetOrCreateIdempotent(t *testing.T) {
	repo := newFakeRepository()
	store := brain.NewStore(repo, &fakeProvider{}, 10, zerolog.Nop())

	first, err := store.GetOrCreate(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	if first.Type != brain.TypeGlobal {
		t.Errorf("type = %q, want %q", first.Type, brain.TypeGlobal)
	}
	if first.Content != "" {
		t.Errorf("new brain content = %q, want empty", first.Content)
	}

	second, err := store.GetOrCreate(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if second.PublicID != first.PublicID {
		t.Errorf("second call returned a different brain: %q vs %q", second.PublicID, first.PublicID)
	}
}

func TestStore_GetOrCreateClassScope(t *testing.T) {
	repo := newFakeRepository()
	store := brain.NewStore(repo, &fakeProvider{}, 10, zerolog.Nop())

	classID := "class_abc"
	b, err := store.GetOrCreate(context.Background(), "user-1", &classID)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if b.Type != brain.TypeClass {
		t.Errorf("type = %q, want %q", b.Type, brain.TypeClass)
	}
	if b.ClassID == nil || *b.ClassID != classID {
		t.Errorf("class id not preserved")
	}
}

func TestStore_UpdateAfterConversation(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{results: []completionResult{{text: "## Updated knowledge"}}}
	store := brain.NewStore(repo, provider, 10, zerolog.Nop())

	b, err := store.GetOrCreate(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "I prefer visual explanations"},
		{Role: llm.RoleAssistant, Content: "Understood."},
	}

	content := store.UpdateAfterConversation(context.Background(), b, history, "conv_1")
	if content != "## Updated knowledge" {
		t.Errorf("content = %q, want updated text", content)
	}
	if b.UpdateCount != 1 {
		t.Errorf("update count = %d, want 1", b.UpdateCount)
	}
	if b.LastUpdatedByConversationID == nil || *b.LastUpdatedByConversationID != "conv_1" {
		t.Errorf("conversation attribution missing")
	}
}

func TestStore_UpdateFailureLeavesBrainUnchanged(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{results: []completionResult{{text: "new content"}}}
	store := brain.NewStore(repo, provider, 10, zerolog.Nop())

	b, err := store.GetOrCreate(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	repo.failOn = "update"

	content := store.UpdateAfterConversation(context.Background(), b,
		[]llm.Message{{Role: llm.RoleUser, Content: "hi"}}, "conv_1")

	if content != "" {
		t.Errorf("content = %q, want prior (empty) content", content)
	}
	if b.Content != "" || b.UpdateCount != 0 || b.LastUpdatedByConversationID != nil {
		t.Errorf("brain mutated despite persistence failure: %+v", b)
	}
}

func TestStore_ProviderFailureIsBestEffort(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{results: []completionResult{
		{err: errors.New("model refused")},
	}}
	store := brain.NewStore(repo, provider, 10, zerolog.Nop())

	b, err := store.GetOrCreate(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	b.Content = "existing"
	repo.brains[scopeKey("user-1", nil)].Content = "existing"

	content := store.UpdateAfterConversation(context.Background(), b,
		[]llm.Message{{Role: llm.RoleUser, Content: "hi"}}, "conv_1")

	if content != "existing" {
		t.Errorf("content = %q, want prior content", content)
	}
	if provider.callCount() != 1 {
		t.Errorf("calls = %d, want 1 (plain errors are not retried)", provider.callCount())
	}
}

func TestStore_RetriesTransientProviderFailure(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{results: []completionResult{
		{err: llm.NewProviderError(llm.CategoryConnection, 0, errors.New("dial refused"))},
		{text: "recovered content"},
	}}
	store := brain.NewStore(repo, provider, 10, zerolog.Nop())

	b, err := store.GetOrCreate(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	content := store.UpdateAfterConversation(context.Background(), b,
		[]llm.Message{{Role: llm.RoleUser, Content: "hi"}}, "conv_1")

	if content != "recovered content" {
		t.Errorf("content = %q, want recovered content", content)
	}
	if provider.callCount() != 2 {
		t.Errorf("calls = %d, want 2", provider.callCount())
	}
}
