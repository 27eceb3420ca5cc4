package conversation_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"helm-server/internal/domain/conversation"
	"helm-server/internal/domain/study"
	"helm-server/internal/utils/platformerrors"
)

// memoryRepo keeps conversations in a map keyed by public id.
type memoryRepo struct {
	mu   sync.Mutex
	byID map[string]*conversation.Conversation
	next uint
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[string]*conversation.Conversation)}
}

func (r *memoryRepo) Create(ctx context.Context, conv *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	conv.ID = r.next
	r.byID[conv.PublicID] = conv
	return nil
}

func (r *memoryRepo) FindByPublicID(ctx context.Context, userID, publicID string) (*conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv, ok := r.byID[publicID]; ok && conv.UserID == userID {
		return conv, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, "conversation not found", nil, "")
}

func (r *memoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*conversation.Conversation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*conversation.Conversation
	for _, conv := range r.byID {
		if conv.UserID == userID {
			out = append(out, conv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memoryRepo) Update(ctx context.Context, conv *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[conv.PublicID] = conv
	return nil
}

func (r *memoryRepo) Touch(ctx context.Context, id uint) error { return nil }

func (r *memoryRepo) Delete(ctx context.Context, userID, publicID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[publicID]
	if !ok || conv.UserID != userID {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound, "conversation not found", nil, "")
	}
	delete(r.byID, publicID)
	return nil
}

type noopMessageRepo struct{}

func (noopMessageRepo) Create(ctx context.Context, msg *conversation.Message) error { return nil }
func (noopMessageRepo) ListByConversation(ctx context.Context, conversationID uint) ([]*conversation.Message, error) {
	return nil, nil
}
func (noopMessageRepo) CountByConversation(ctx context.Context, conversationID uint) (int64, error) {
	return 0, nil
}

// stubStudyRepo owns a fixed set of ids for one user.
type stubStudyRepo struct {
	userID        string
	classIDs      map[string]bool
	assignmentIDs map[string]bool
	noteIDs       map[string]bool
	pdfIDs        map[string]bool
}

func (r *stubStudyRepo) ClassesByIDs(ctx context.Context, userID string, ids []string) ([]*study.Class, error) {
	var out []*study.Class
	for _, id := range ids {
		if userID == r.userID && r.classIDs[id] {
			out = append(out, &study.Class{PublicID: id, UserID: userID, Name: "class"})
		}
	}
	return out, nil
}

func (r *stubStudyRepo) ClassByID(ctx context.Context, userID, id string) (*study.Class, error) {
	if userID == r.userID && r.classIDs[id] {
		return &study.Class{PublicID: id, UserID: userID, Name: "class"}, nil
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
		platformerrors.ErrorTypeNotFound, "class not found", nil, "")
}

func (r *stubStudyRepo) AssignmentsByIDs(ctx context.Context, userID string, ids []string) ([]*study.Assignment, error) {
	var out []*study.Assignment
	for _, id := range ids {
		if userID == r.userID && r.assignmentIDs[id] {
			out = append(out, &study.Assignment{PublicID: id, UserID: userID, Title: "assignment"})
		}
	}
	return out, nil
}

func (r *stubStudyRepo) NotesByIDs(ctx context.Context, userID string, ids []string) ([]*study.Note, error) {
	var out []*study.Note
	for _, id := range ids {
		if userID == r.userID && r.noteIDs[id] {
			out = append(out, &study.Note{PublicID: id, UserID: userID, Title: "note"})
		}
	}
	return out, nil
}

func (r *stubStudyRepo) PDFsByIDs(ctx context.Context, userID string, ids []string) ([]*study.PDF, error) {
	var out []*study.PDF
	for _, id := range ids {
		if userID == r.userID && r.pdfIDs[id] {
			out = append(out, &study.PDF{PublicID: id, UserID: userID, Filename: "doc.pdf"})
		}
	}
	return out, nil
}

func newTestService() (*conversation.Service, *memoryRepo) {
	repo := newMemoryRepo()
	studyRepo := &stubStudyRepo{
		userID:        "user-1",
		classIDs:      map[string]bool{"class_1": true},
		assignmentIDs: map[string]bool{"asg_1": true},
		noteIDs:       map[string]bool{"note_1": true},
		pdfIDs:        map[string]bool{"pdf_1": true},
	}
	return conversation.NewService(repo, noopMessageRepo{}, studyRepo, zerolog.Nop()), repo
}

func TestService_CreateWithValidScopes(t *testing.T) {
	service, _ := newTestService()

	conv, err := service.Create(context.Background(), conversation.CreateParams{
		UserID:   "user-1",
		ClassIDs: []string{"class_1"},
		NoteIDs:  []string{"note_1"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.HasPrefix(conv.PublicID, "conv_") {
		t.Errorf("public id = %q, want conv_ prefix", conv.PublicID)
	}
	if conv.Title == nil || *conv.Title != "New Conversation" {
		t.Errorf("title = %v, want default", conv.Title)
	}
	if len(conv.ContextClassIDs) != 1 || conv.ContextClassIDs[0] != "class_1" {
		t.Errorf("class ids = %v", conv.ContextClassIDs)
	}
}

func TestService_CreateRejectsForeignIDs(t *testing.T) {
	service, repo := newTestService()

	_, err := service.Create(context.Background(), conversation.CreateParams{
		UserID:   "user-1",
		ClassIDs: []string{"class_1", "class_other"},
	})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), "class_other") {
		t.Errorf("error %q does not name the offending id", err.Error())
	}
	if len(repo.byID) != 0 {
		t.Error("conversation persisted despite validation failure")
	}
}

func TestService_CreateDeduplicatesIDs(t *testing.T) {
	service, _ := newTestService()

	conv, err := service.Create(context.Background(), conversation.CreateParams{
		UserID:  "user-1",
		NoteIDs: []string{"note_1", "note_1", " note_1 "},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(conv.ContextNoteIDs) != 1 {
		t.Errorf("note ids = %v, want deduplicated", conv.ContextNoteIDs)
	}
}

func TestService_UpdateContextPartial(t *testing.T) {
	service, _ := newTestService()

	conv, err := service.Create(context.Background(), conversation.CreateParams{
		UserID:   "user-1",
		ClassIDs: []string{"class_1"},
		NoteIDs:  []string{"note_1"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	empty := []string{}
	updated, err := service.UpdateContext(context.Background(), "user-1", conv.PublicID,
		conversation.UpdateContextParams{NoteIDs: &empty})
	if err != nil {
		t.Fatalf("UpdateContext: %v", err)
	}

	if len(updated.ContextNoteIDs) != 0 {
		t.Errorf("note ids = %v, want cleared", updated.ContextNoteIDs)
	}
	if len(updated.ContextClassIDs) != 1 {
		t.Errorf("class ids = %v, want untouched", updated.ContextClassIDs)
	}
}

func TestService_UpdateContextRejectsForeignIDs(t *testing.T) {
	service, _ := newTestService()

	conv, err := service.Create(context.Background(), conversation.CreateParams{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	bad := []string{"pdf_foreign"}
	_, err = service.UpdateContext(context.Background(), "user-1", conv.PublicID,
		conversation.UpdateContextParams{PDFIDs: &bad})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestService_GetScopedToOwner(t *testing.T) {
	service, _ := newTestService()

	conv, err := service.Create(context.Background(), conversation.CreateParams{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := service.Get(context.Background(), "someone-else", conv.PublicID); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Fatalf("err = %v, want not-found for foreign user", err)
	}
}

func TestService_Delete(t *testing.T) {
	service, repo := newTestService()

	conv, err := service.Create(context.Background(), conversation.CreateParams{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := service.Delete(context.Background(), "user-1", conv.PublicID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.byID) != 0 {
		t.Error("conversation still present after delete")
	}

	if err := service.Delete(context.Background(), "user-1", conv.PublicID); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Fatalf("second delete err = %v, want not-found", err)
	}
}
