package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"helm-server/internal/domain/brain"
	"helm-server/internal/domain/conversation"
	"helm-server/internal/domain/llm"
	"helm-server/internal/utils/idgen"
	"helm-server/internal/utils/platformerrors"
)

// StreamObserver receives the client-visible events of one chat turn.
// Exactly one of OnDone/OnError terminates the sequence.
type StreamObserver interface {
	OnMessage(text string)
	OnDone()
	OnError(message string)
}

// BrainUpdateJob is the self-contained payload handed to the background
// scheduler. It carries ids only; workers re-resolve state with their own
// persistence handles.
type BrainUpdateJob struct {
	UserID               string
	ConversationPublicID string
	ClassIDs             []string
}

// Scheduler hands a brain-update job off to run detached from the
// originating request's lifetime.
type Scheduler interface {
	Schedule(ctx context.Context, job BrainUpdateJob) error
}

// UpdatedBrain names one scope refreshed by a brain update.
type UpdatedBrain struct {
	BrainType string  `json:"brain_type"`
	ClassID   *string `json:"class_id"`
}

// Orchestrator drives a chat turn through validation, context building,
// streaming, persistence, and conditional brain-update scheduling.
type Orchestrator struct {
	conversations conversation.Repository
	messages      conversation.MessageRepository
	builder       *ContextBuilder
	streamer      *Streamer
	detector      *brain.Detector
	brains        *brain.Store
	scheduler     Scheduler
	trusted       bool
	log           zerolog.Logger
}

// NewOrchestrator wires the turn state machine. trusted controls whether
// raw provider errors may reach clients.
func NewOrchestrator(
	conversations conversation.Repository,
	messages conversation.MessageRepository,
	builder *ContextBuilder,
	streamer *Streamer,
	detector *brain.Detector,
	brains *brain.Store,
	scheduler Scheduler,
	trusted bool,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		conversations: conversations,
		messages:      messages,
		builder:       builder,
		streamer:      streamer,
		detector:      detector,
		brains:        brains,
		scheduler:     scheduler,
		trusted:       trusted,
		log:           log.With().Str("component", "chat-orchestrator").Logger(),
	}
}

// StreamTurn executes one user-message-in, assistant-message-out exchange.
// Validation errors return before any side effect; streaming errors degrade
// into a terminal error event; brain-update failures never surface.
func (o *Orchestrator) StreamTurn(ctx context.Context, userID, conversationID, messageText string, observer StreamObserver) error {
	messageText = strings.TrimSpace(messageText)
	if messageText == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"message must not be empty", nil, "")
	}

	conv, err := o.conversations.FindByPublicID(ctx, userID, conversationID)
	if err != nil {
		return err
	}

	contextText, err := o.builder.Build(ctx, userID,
		conv.ContextClassIDs, conv.ContextAssignmentIDs, conv.ContextPDFIDs, conv.ContextNoteIDs)
	if err != nil {
		return err
	}

	stored, err := o.messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		return err
	}
	history := conversation.History(stored)

	// The user message is persisted before streaming begins so a client
	// disconnect mid-stream cannot lose the user's input.
	if err := o.appendMessage(ctx, conv.ID, conversation.RoleUser, messageText); err != nil {
		return err
	}

	var assistantText strings.Builder
	streamFailed := false
	for chunk := range o.streamer.Stream(ctx, messageText, history, contextText) {
		if chunk.Err != nil {
			streamFailed = true
			observer.OnError(SanitizeError(chunk.Err, o.trusted))
			break
		}
		assistantText.WriteString(chunk.Text)
		observer.OnMessage(chunk.Text)
	}

	// Persistence and scheduling run on a detached context: a client
	// disconnect must not discard already-produced assistant output.
	tailCtx := context.WithoutCancel(ctx)

	if err := o.appendMessage(tailCtx, conv.ID, conversation.RoleAssistant, assistantText.String()); err != nil {
		return err
	}
	if err := o.conversations.Touch(tailCtx, conv.ID); err != nil {
		o.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("touch conversation failed")
	}

	updatedHistory := append(history,
		llm.Message{Role: llm.RoleUser, Content: messageText},
		llm.Message{Role: llm.RoleAssistant, Content: assistantText.String()},
	)

	// A cut-off turn still contributes to history, but the update path only
	// fires when the turn ran to completion.
	if ctx.Err() == nil && o.detector.ShouldUpdate(updatedHistory) {
		job := BrainUpdateJob{
			UserID:               userID,
			ConversationPublicID: conv.PublicID,
			ClassIDs:             conv.ContextClassIDs,
		}
		if err := o.scheduler.Schedule(tailCtx, job); err != nil {
			o.log.Error().Err(err).Str("conversation_id", conversationID).Msg("schedule brain update failed")
		} else {
			o.log.Info().Str("conversation_id", conversationID).Msg("brain update scheduled")
		}
	}

	if streamFailed {
		return nil
	}
	observer.OnDone()
	return nil
}

// UpdateBrains synchronously refreshes every brain in the conversation's
// scope plus the global one and reports which scopes were touched. Scopes
// update independently; one failing never blocks the others.
func (o *Orchestrator) UpdateBrains(ctx context.Context, userID, conversationID string) ([]UpdatedBrain, error) {
	conv, err := o.conversations.FindByPublicID(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	stored, err := o.messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	history := conversation.History(stored)

	scopes := make([]*string, 0, len(conv.ContextClassIDs)+1)
	for _, classID := range conv.ContextClassIDs {
		id := classID
		scopes = append(scopes, &id)
	}
	scopes = append(scopes, nil)

	updated := make([]UpdatedBrain, len(scopes))
	g, gctx := errgroup.WithContext(ctx)
	for i, classID := range scopes {
		i, classID := i, classID
		g.Go(func() error {
			o.updateScope(gctx, userID, classID, history, conv.PublicID)
			updated[i] = UpdatedBrain{
				BrainType: string(brain.TypeForScope(classID)),
				ClassID:   classID,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return updated, nil
}

// RunBrainUpdate executes a scheduled job with the worker's own persistence
// handles. Per-scope failures are swallowed; only load failures fail the job.
func (o *Orchestrator) RunBrainUpdate(ctx context.Context, job BrainUpdateJob) error {
	conv, err := o.conversations.FindByPublicID(ctx, job.UserID, job.ConversationPublicID)
	if err != nil {
		return err
	}
	stored, err := o.messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		return err
	}
	history := conversation.History(stored)

	for _, classID := range job.ClassIDs {
		id := classID
		o.updateScope(ctx, job.UserID, &id, history, conv.PublicID)
	}
	o.updateScope(ctx, job.UserID, nil, history, conv.PublicID)
	return nil
}

// updateScope runs get-or-create then update for one scope, best-effort.
func (o *Orchestrator) updateScope(ctx context.Context, userID string, classID *string, history []llm.Message, conversationID string) {
	scope := brain.ScopeName(classID)
	b, err := o.brains.GetOrCreate(ctx, userID, classID)
	if err != nil {
		o.log.Error().Err(err).Str("scope", scope).Msg("brain lookup failed")
		return
	}
	o.brains.UpdateAfterConversation(ctx, b, history, conversationID)
}

func (o *Orchestrator) appendMessage(ctx context.Context, conversationID uint, role conversation.Role, content string) error {
	publicID, err := idgen.GenerateSecureID("msg", 24)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"failed to generate message id", err, "")
	}
	return o.messages.Create(ctx, &conversation.Message{
		PublicID:       publicID,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	})
}
