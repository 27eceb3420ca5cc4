package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"helm-server/internal/domain/conversation"
	"helm-server/internal/interfaces/httpserver/requests"
	"helm-server/internal/interfaces/httpserver/responses"
)

// ConversationHandler exposes conversation CRUD endpoints.
type ConversationHandler struct {
	service     *conversation.Service
	devIdentity bool
	log         zerolog.Logger
}

// NewConversationHandler constructs the handler.
func NewConversationHandler(service *conversation.Service, devIdentity bool, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service:     service,
		devIdentity: devIdentity,
		log:         log.With().Str("handler", "conversation").Logger(),
	}
}

// Create handles POST /v1/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c, h.devIdentity)
	if !ok {
		return
	}

	var req requests.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.service.Create(c.Request.Context(), conversation.CreateParams{
		UserID:        userID,
		Title:         req.Title,
		ClassIDs:      req.ClassIDs,
		AssignmentIDs: req.AssignmentIDs,
		PDFIDs:        req.PDFIDs,
		NoteIDs:       req.NoteIDs,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to create conversation")
		return
	}

	c.JSON(http.StatusCreated, responses.ConversationFromDomain(conv))
}

// List handles GET /v1/conversations
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := requireUser(c, h.devIdentity)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	convs, total, err := h.service.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}

	data := make([]responses.ConversationPayload, len(convs))
	for i, conv := range convs {
		data[i] = responses.ConversationFromDomain(conv)
	}
	c.JSON(http.StatusOK, responses.ConversationListPayload{Data: data, Total: total})
}

// Get handles GET /v1/conversations/:conversation_id
func (h *ConversationHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c, h.devIdentity)
	if !ok {
		return
	}

	conv, err := h.service.Get(c.Request.Context(), userID, c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to fetch conversation")
		return
	}

	c.JSON(http.StatusOK, responses.ConversationFromDomain(conv))
}

// UpdateContext handles PATCH /v1/conversations/:conversation_id/context
func (h *ConversationHandler) UpdateContext(c *gin.Context) {
	userID, ok := requireUser(c, h.devIdentity)
	if !ok {
		return
	}

	var req requests.UpdateContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.service.UpdateContext(c.Request.Context(), userID, c.Param("conversation_id"),
		conversation.UpdateContextParams{
			Title:         req.Title,
			ClassIDs:      req.ClassIDs,
			AssignmentIDs: req.AssignmentIDs,
			PDFIDs:        req.PDFIDs,
			NoteIDs:       req.NoteIDs,
		})
	if err != nil {
		responses.HandleError(c, err, "failed to update conversation context")
		return
	}

	c.JSON(http.StatusOK, responses.ConversationFromDomain(conv))
}

// Messages handles GET /v1/conversations/:conversation_id/messages
func (h *ConversationHandler) Messages(c *gin.Context) {
	userID, ok := requireUser(c, h.devIdentity)
	if !ok {
		return
	}

	msgs, err := h.service.Messages(c.Request.Context(), userID, c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to list messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": responses.MessagesFromDomain(msgs)})
}

// Delete handles DELETE /v1/conversations/:conversation_id
func (h *ConversationHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c, h.devIdentity)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, c.Param("conversation_id")); err != nil {
		responses.HandleError(c, err, "failed to delete conversation")
		return
	}

	c.Status(http.StatusNoContent)
}
