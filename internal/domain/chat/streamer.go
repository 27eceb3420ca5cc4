package chat

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"helm-server/internal/domain/llm"
	"helm-server/internal/domain/retry"
)

const tutorSystemPromptTemplate = `You are a helpful AI tutor assistant for students.

You have access to the following context:

%s

Use this context to answer questions accurately. Reference specific materials when relevant.
Be concise but thorough. If you don't know something, say so.`

const chatMaxTokens = 4000

// Chunk is one element of a streamed response. Err is set on the single
// terminal error chunk a failed stream emits before the channel closes.
type Chunk struct {
	Text string
	Err  error
}

// Streamer turns a user message, history, and context into model output.
type Streamer struct {
	provider llm.Provider
	policy   retry.Policy
	log      zerolog.Logger
}

// NewStreamer builds a streamer with the provider retry policy.
func NewStreamer(provider llm.Provider, log zerolog.Logger) *Streamer {
	return &Streamer{
		provider: provider,
		policy:   retry.ProviderPolicy(),
		log:      log.With().Str("component", "chat-streamer").Logger(),
	}
}

func buildRequest(userMessage string, history []llm.Message, contextText string) llm.CompletionRequest {
	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
	return llm.CompletionRequest{
		SystemPrompt: fmt.Sprintf(tutorSystemPromptTemplate, contextText),
		Messages:     messages,
		MaxTokens:    chatMaxTokens,
	}
}

// Stream opens a streaming completion and forwards fragments in arrival
// order. Retries apply only to stream establishment; once a chunk has been
// produced the call is committed and a later transient failure surfaces as
// a single terminal error chunk. The returned channel is closed when the
// sequence ends.
func (s *Streamer) Stream(ctx context.Context, userMessage string, history []llm.Message, contextText string) <-chan Chunk {
	out := make(chan Chunk)

	go func() {
		defer close(out)

		req := buildRequest(userMessage, history, contextText)

		stream, err := retry.ExecuteWithResult(ctx, s.policy, llm.IsRetryable,
			func(ctx context.Context, attempt int) (llm.Stream, error) {
				if attempt > 0 {
					s.log.Warn().Int("attempt", attempt).Msg("retrying stream establishment")
				}
				return s.provider.StreamCompletion(ctx, req)
			})
		if err != nil {
			s.log.Error().Err(err).Str("category", string(llm.CategoryOf(err))).Msg("stream establishment failed")
			emit(ctx, out, Chunk{Err: err})
			return
		}
		defer stream.Close()

		for {
			text, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				s.log.Error().Err(err).Msg("stream interrupted")
				emit(ctx, out, Chunk{Err: err})
				return
			}
			if text == "" {
				continue
			}
			if !emit(ctx, out, Chunk{Text: text}) {
				return
			}
		}
	}()

	return out
}

// Complete performs the non-streaming variant of a turn, returning the full
// response text. The same retry policy applies as for stream establishment.
func (s *Streamer) Complete(ctx context.Context, userMessage string, history []llm.Message, contextText string) (string, error) {
	req := buildRequest(userMessage, history, contextText)
	return retry.ExecuteWithResult(ctx, s.policy, llm.IsRetryable,
		func(ctx context.Context, attempt int) (string, error) {
			if attempt > 0 {
				s.log.Warn().Int("attempt", attempt).Msg("retrying completion")
			}
			return s.provider.Complete(ctx, req)
		})
}

func emit(ctx context.Context, out chan<- Chunk, chunk Chunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
