package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"helm-server/internal/domain/chat"
	"helm-server/internal/infrastructure/metrics"
	"helm-server/internal/infrastructure/observability"
	"helm-server/internal/interfaces/httpserver/requests"
	"helm-server/internal/interfaces/httpserver/responses"
)

// ChatHandler exposes the streamed chat turn endpoint.
type ChatHandler struct {
	orchestrator *chat.Orchestrator
	devIdentity  bool
	log          zerolog.Logger
}

// NewChatHandler constructs the handler.
func NewChatHandler(orchestrator *chat.Orchestrator, devIdentity bool, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		devIdentity:  devIdentity,
		log:          log.With().Str("handler", "chat").Logger(),
	}
}

// Stream handles POST /v1/conversations/:conversation_id/chat. The response is
// a server-sent event stream of message events terminated by done or error.
func (h *ChatHandler) Stream(c *gin.Context) {
	userID, ok := requireUser(c, h.devIdentity)
	if !ok {
		return
	}

	var req requests.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conversationID := c.Param("conversation_id")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	ctx, span := observability.StartTurnSpan(c.Request.Context(), conversationID)
	defer span.End()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	observer := newSSEObserver(c.Writer, flusher, h.log)

	err := h.orchestrator.StreamTurn(ctx, userID, conversationID, req.Message, observer)
	if err != nil {
		// Failures before the first event still return a regular JSON error.
		if !observer.started() {
			observability.RecordError(span, err)
			metrics.RecordChatTurn("rejected")
			responses.HandleError(c, err, "chat turn failed")
			return
		}
		observability.RecordError(span, err)
		metrics.RecordChatTurn("failed")
		observer.sendEvent("error", "stream interrupted")
		return
	}

	if observer.sawError {
		metrics.RecordChatTurn("failed")
		return
	}
	metrics.RecordChatTurn("completed")
}

// sseObserver writes chat turn events as server-sent events.
type sseObserver struct {
	writer   http.ResponseWriter
	flusher  http.Flusher
	log      zerolog.Logger
	mu       sync.Mutex
	sent     bool
	sawError bool
}

func newSSEObserver(w http.ResponseWriter, flusher http.Flusher, log zerolog.Logger) *sseObserver {
	return &sseObserver{
		writer:  w,
		flusher: flusher,
		log:     log,
	}
}

func (o *sseObserver) OnMessage(text string) {
	o.sendEvent("message", text)
	metrics.RecordStreamChunk()
}

func (o *sseObserver) OnDone() {
	o.sendEvent("done", "")
}

func (o *sseObserver) OnError(message string) {
	o.sawError = true
	o.sendEvent("error", message)
}

func (o *sseObserver) started() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent
}

// sendEvent writes one SSE event. Multi-line payloads become multiple data
// lines so clients reassemble the original text.
func (o *sseObserver) sendEvent(name, payload string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = true

	fmt.Fprintf(o.writer, "event: %s\n", name)
	for _, line := range strings.Split(payload, "\n") {
		fmt.Fprintf(o.writer, "data: %s\n", line)
	}
	fmt.Fprint(o.writer, "\n")
	o.flusher.Flush()
}

var _ chat.StreamObserver = (*sseObserver)(nil)
