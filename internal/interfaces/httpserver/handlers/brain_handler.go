package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"helm-server/internal/domain/brain"
	"helm-server/internal/domain/chat"
	"helm-server/internal/domain/study"
	"helm-server/internal/infrastructure/metrics"
	"helm-server/internal/interfaces/httpserver/responses"
)

// BrainHandler exposes brain read endpoints and the manual update trigger.
type BrainHandler struct {
	brains       *brain.Store
	orchestrator *chat.Orchestrator
	study        study.Repository
	devIdentity  bool
	log          zerolog.Logger
}

// NewBrainHandler constructs the handler.
func NewBrainHandler(
	brains *brain.Store,
	orchestrator *chat.Orchestrator,
	studyRepo study.Repository,
	devIdentity bool,
	log zerolog.Logger,
) *BrainHandler {
	return &BrainHandler{
		brains:       brains,
		orchestrator: orchestrator,
		study:        studyRepo,
		devIdentity:  devIdentity,
		log:          log.With().Str("handler", "brain").Logger(),
	}
}

// GetGlobal handles GET /v1/brain. The brain is created empty on
// first read, so this never 404s for a valid user.
func (h *BrainHandler) GetGlobal(c *gin.Context) {
	userID, ok := requireUser(c, h.devIdentity)
	if !ok {
		return
	}

	b, err := h.brains.GetOrCreate(c.Request.Context(), userID, nil)
	if err != nil {
		responses.HandleError(c, err, "failed to fetch global brain")
		return
	}

	c.JSON(http.StatusOK, responses.BrainFromDomain(b))
}

// GetClass handles GET /v1/brain/class/:class_id. The class must belong to
// the caller.
func (h *BrainHandler) GetClass(c *gin.Context) {
	userID, ok := requireUser(c, h.devIdentity)
	if !ok {
		return
	}

	classID := c.Param("class_id")
	if _, err := h.study.ClassByID(c.Request.Context(), userID, classID); err != nil {
		responses.HandleError(c, err, "failed to resolve class")
		return
	}

	b, err := h.brains.GetOrCreate(c.Request.Context(), userID, &classID)
	if err != nil {
		responses.HandleError(c, err, "failed to fetch class brain")
		return
	}

	c.JSON(http.StatusOK, responses.BrainFromDomain(b))
}

// List handles GET /v1/brains
func (h *BrainHandler) List(c *gin.Context) {
	userID, ok := requireUser(c, h.devIdentity)
	if !ok {
		return
	}

	brains, err := h.brains.List(c.Request.Context(), userID)
	if err != nil {
		responses.HandleError(c, err, "failed to list brains")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": responses.BrainsFromDomain(brains)})
}

// UpdateFromConversation handles POST /v1/conversations/:conversation_id/update-brain.
// It refreshes every brain in the conversation's scope synchronously.
func (h *BrainHandler) UpdateFromConversation(c *gin.Context) {
	userID, ok := requireUser(c, h.devIdentity)
	if !ok {
		return
	}

	updated, err := h.orchestrator.UpdateBrains(c.Request.Context(), userID, c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to update brains")
		return
	}

	for _, u := range updated {
		metrics.RecordBrainUpdate(u.BrainType, "completed")
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
