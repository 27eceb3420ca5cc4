package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"helm-server/internal/domain/study"
	"helm-server/internal/utils/idgen"
	"helm-server/internal/utils/platformerrors"
)

// Service manages conversations and enforces scope-reference ownership.
type Service struct {
	repo     Repository
	messages MessageRepository
	study    study.Repository
	log      zerolog.Logger
}

// NewService builds the conversation service.
func NewService(repo Repository, messages MessageRepository, studyRepo study.Repository, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		messages: messages,
		study:    studyRepo,
		log:      log.With().Str("component", "conversation-service").Logger(),
	}
}

// CreateParams carries the inputs for creating a conversation.
type CreateParams struct {
	UserID        string
	Title         *string
	ClassIDs      []string
	AssignmentIDs []string
	PDFIDs        []string
	NoteIDs       []string
}

// UpdateContextParams replaces scope sets. Nil slices mean "leave unchanged".
type UpdateContextParams struct {
	Title         *string
	ClassIDs      *[]string
	AssignmentIDs *[]string
	PDFIDs        *[]string
	NoteIDs       *[]string
}

// Create validates every scope reference against the owner and persists the
// conversation. Validation happens before any side effect.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Conversation, error) {
	classIDs := normalizeIDs(params.ClassIDs)
	assignmentIDs := normalizeIDs(params.AssignmentIDs)
	pdfIDs := normalizeIDs(params.PDFIDs)
	noteIDs := normalizeIDs(params.NoteIDs)

	if err := s.validateScopes(ctx, params.UserID, classIDs, assignmentIDs, pdfIDs, noteIDs); err != nil {
		return nil, err
	}

	publicID, err := idgen.GenerateSecureID("conv", 24)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"failed to generate conversation id", err, "")
	}

	title := params.Title
	if title == nil {
		defaultTitle := "New Conversation"
		title = &defaultTitle
	}

	conv := &Conversation{
		PublicID:             publicID,
		UserID:               params.UserID,
		Title:                title,
		ContextClassIDs:      classIDs,
		ContextAssignmentIDs: assignmentIDs,
		ContextPDFIDs:        pdfIDs,
		ContextNoteIDs:       noteIDs,
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Get fetches a conversation owned by the user.
func (s *Service) Get(ctx context.Context, userID, publicID string) (*Conversation, error) {
	return s.repo.FindByPublicID(ctx, userID, publicID)
}

// List returns the user's conversations, newest first, plus the total count.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]*Conversation, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Messages returns a conversation's messages in creation order.
func (s *Service) Messages(ctx context.Context, userID, publicID string) ([]*Message, error) {
	conv, err := s.repo.FindByPublicID(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}
	return s.messages.ListByConversation(ctx, conv.ID)
}

// UpdateContext replaces the provided scope sets after re-validating ownership.
func (s *Service) UpdateContext(ctx context.Context, userID, publicID string, params UpdateContextParams) (*Conversation, error) {
	conv, err := s.repo.FindByPublicID(ctx, userID, publicID)
	if err != nil {
		return nil, err
	}

	classIDs := conv.ContextClassIDs
	if params.ClassIDs != nil {
		classIDs = normalizeIDs(*params.ClassIDs)
	}
	assignmentIDs := conv.ContextAssignmentIDs
	if params.AssignmentIDs != nil {
		assignmentIDs = normalizeIDs(*params.AssignmentIDs)
	}
	pdfIDs := conv.ContextPDFIDs
	if params.PDFIDs != nil {
		pdfIDs = normalizeIDs(*params.PDFIDs)
	}
	noteIDs := conv.ContextNoteIDs
	if params.NoteIDs != nil {
		noteIDs = normalizeIDs(*params.NoteIDs)
	}

	if err := s.validateScopes(ctx, userID, classIDs, assignmentIDs, pdfIDs, noteIDs); err != nil {
		return nil, err
	}

	conv.ContextClassIDs = classIDs
	conv.ContextAssignmentIDs = assignmentIDs
	conv.ContextPDFIDs = pdfIDs
	conv.ContextNoteIDs = noteIDs
	if params.Title != nil {
		conv.Title = params.Title
	}

	if err := s.repo.Update(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Delete removes the conversation and its messages. Brains are untouched.
func (s *Service) Delete(ctx context.Context, userID, publicID string) error {
	return s.repo.Delete(ctx, userID, publicID)
}

// validateScopes checks that every referenced id resolves to a row owned by
// the user. Any unresolved id rejects the request, naming the offending set.
func (s *Service) validateScopes(ctx context.Context, userID string, classIDs, assignmentIDs, pdfIDs, noteIDs []string) error {
	classes, err := s.study.ClassesByIDs(ctx, userID, classIDs)
	if err != nil {
		return err
	}
	if missing := missingIDs(classIDs, classKeys(classes)); len(missing) > 0 {
		return scopeValidationError(ctx, "class", missing)
	}

	assignments, err := s.study.AssignmentsByIDs(ctx, userID, assignmentIDs)
	if err != nil {
		return err
	}
	if missing := missingIDs(assignmentIDs, assignmentKeys(assignments)); len(missing) > 0 {
		return scopeValidationError(ctx, "assignment", missing)
	}

	pdfs, err := s.study.PDFsByIDs(ctx, userID, pdfIDs)
	if err != nil {
		return err
	}
	if missing := missingIDs(pdfIDs, pdfKeys(pdfs)); len(missing) > 0 {
		return scopeValidationError(ctx, "pdf", missing)
	}

	notes, err := s.study.NotesByIDs(ctx, userID, noteIDs)
	if err != nil {
		return err
	}
	if missing := missingIDs(noteIDs, noteKeys(notes)); len(missing) > 0 {
		return scopeValidationError(ctx, "note", missing)
	}

	return nil
}

func scopeValidationError(ctx context.Context, kind string, missing []string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
		fmt.Sprintf("unknown %s ids: %s", kind, strings.Join(missing, ", ")), nil, "")
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIDs(requested []string, found map[string]struct{}) []string {
	var missing []string
	for _, id := range requested {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func classKeys(classes []*study.Class) map[string]struct{} {
	keys := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		keys[c.PublicID] = struct{}{}
	}
	return keys
}

func assignmentKeys(assignments []*study.Assignment) map[string]struct{} {
	keys := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		keys[a.PublicID] = struct{}{}
	}
	return keys
}

func pdfKeys(pdfs []*study.PDF) map[string]struct{} {
	keys := make(map[string]struct{}, len(pdfs))
	for _, p := range pdfs {
		keys[p.PublicID] = struct{}{}
	}
	return keys
}

func noteKeys(notes []*study.Note) map[string]struct{} {
	keys := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		keys[n.PublicID] = struct{}{}
	}
	return keys
}
