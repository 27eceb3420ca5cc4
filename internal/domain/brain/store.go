package brain

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"helm-server/internal/domain/llm"
	"helm-server/internal/domain/retry"
	"helm-server/internal/utils/idgen"
	"helm-server/internal/utils/platformerrors"
)

const updateSystemPromptTemplate = `You are a memory system for a student assistant.

Current brain content:
%s

Analyze the conversation and update the brain with:
- New concepts or topics learned
- Preferences or patterns (study habits, question types)
- Recurring questions or difficulties
- Important insights

Return ONLY the updated brain content as Markdown. Be concise and organized.
If there's no new information worth remembering, return the current content unchanged.`

const updateMaxTokens = 2000

// Store provides get-or-create and update operations over brains.
type Store struct {
	repo          Repository
	provider      llm.Provider
	policy        retry.Policy
	historyWindow int
	log           zerolog.Logger
}

// NewStore builds a brain store. historyWindow bounds how many trailing
// messages are sent to the summarization call.
func NewStore(repo Repository, provider llm.Provider, historyWindow int, log zerolog.Logger) *Store {
	if historyWindow <= 0 {
		historyWindow = 10
	}
	return &Store{
		repo:          repo,
		provider:      provider,
		policy:        retry.ProviderPolicy(),
		historyWindow: historyWindow,
		log:           log.With().Str("component", "brain-store").Logger(),
	}
}

// GetOrCreate returns the brain for (user, scope), creating an empty one on
// first access. Losing a concurrent creation race resolves by re-fetching
// the winner's row, so the call is idempotent.
func (s *Store) GetOrCreate(ctx context.Context, userID string, classID *string) (*Brain, error) {
	existing, err := s.repo.FindByScope(ctx, userID, classID)
	if err == nil {
		return existing, nil
	}
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		return nil, err
	}

	publicID, err := idgen.GenerateSecureID("brain", 24)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			"failed to generate brain id", err, "")
	}

	created := &Brain{
		PublicID:    publicID,
		UserID:      userID,
		ClassID:     classID,
		Type:        TypeForScope(classID),
		Content:     "",
		UpdateCount: 0,
	}
	if err := s.repo.Create(ctx, created); err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) {
			return s.repo.FindByScope(ctx, userID, classID)
		}
		return nil, err
	}
	return created, nil
}

// UpdateAfterConversation asks the LLM to fold the recent history into the
// brain's content and persists the result. Any failure leaves the brain
// unchanged and returns the prior content; errors never reach the caller.
func (s *Store) UpdateAfterConversation(ctx context.Context, b *Brain, history []llm.Message, conversationID string) string {
	log := s.log.With().
		Str("brain_id", b.PublicID).
		Str("scope", ScopeName(b.ClassID)).
		Str("conversation_id", conversationID).
		Logger()

	return BestEffort(log, "brain_update", b.Content, func() (string, error) {
		currentContent := b.Content
		if currentContent == "" {
			currentContent = "No existing knowledge yet."
		}

		req := llm.CompletionRequest{
			SystemPrompt: fmt.Sprintf(updateSystemPromptTemplate, currentContent),
			Messages:     tailMessages(history, s.historyWindow),
			MaxTokens:    updateMaxTokens,
		}

		updated, err := retry.ExecuteWithResult(ctx, s.policy, llm.IsRetryable,
			func(ctx context.Context, attempt int) (string, error) {
				if attempt > 0 {
					log.Warn().Int("attempt", attempt).Msg("retrying brain update completion")
				}
				return s.provider.Complete(ctx, req)
			})
		if err != nil {
			return "", err
		}

		prevContent := b.Content
		prevCount := b.UpdateCount
		prevBy := b.LastUpdatedByConversationID

		b.Content = updated
		b.UpdateCount++
		b.LastUpdatedByConversationID = &conversationID
		if err := s.repo.Update(ctx, b); err != nil {
			// Roll the in-memory copy back so a later read does not report
			// content the store never persisted.
			b.Content = prevContent
			b.UpdateCount = prevCount
			b.LastUpdatedByConversationID = prevBy
			return "", err
		}

		log.Info().Int("update_count", b.UpdateCount).Msg("brain updated")
		return updated, nil
	})
}

// List returns every brain the user owns.
func (s *Store) List(ctx context.Context, userID string) ([]*Brain, error) {
	return s.repo.ListByUser(ctx, userID)
}

func tailMessages(history []llm.Message, window int) []llm.Message {
	if len(history) <= window {
		return history
	}
	return history[len(history)-window:]
}
