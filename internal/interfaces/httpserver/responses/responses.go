package responses

import (
	"errors"
	"net/http"
	"time"

	"helm-server/internal/domain/brain"
	"helm-server/internal/domain/conversation"
	"helm-server/internal/utils/platformerrors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code          string `json:"code"` // UUID from PlatformError
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError handles domain errors and returns appropriate HTTP responses
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())

		errResp := ErrorResponse{
			Code:          domainErr.GetUUID(),
			Error:         message,
			Message:       domainErr.Message,
			ErrorInstance: domainErr,
			RequestID:     domainErr.GetRequestID(),
		}

		reqCtx.AbortWithStatusJSON(statusCode, errResp)
		return
	}
	// Non-platform errors
	errResp := ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	ctx := reqCtx.Request.Context()
	err := platformerrors.NewError(ctx, platformerrors.LayerRoute, errorType, message, nil, uuid)

	statusCode := platformerrors.ErrorTypeToHTTPStatus(err.GetErrorType())

	errResp := ErrorResponse{
		Code:          err.GetUUID(),
		Error:         message,
		Message:       message,
		ErrorInstance: err,
		RequestID:     err.GetRequestID(),
	}

	reqCtx.AbortWithStatusJSON(statusCode, errResp)
}

// ConversationPayload is returned to clients.
type ConversationPayload struct {
	ID                   string   `json:"id"`
	Title                *string  `json:"title"`
	ContextClassIDs      []string `json:"context_class_ids"`
	ContextAssignmentIDs []string `json:"context_assignment_ids"`
	ContextPDFIDs        []string `json:"context_pdf_ids"`
	ContextNoteIDs       []string `json:"context_note_ids"`
	CreatedAt            int64    `json:"created_at"`
	UpdatedAt            int64    `json:"updated_at"`
}

// ConversationFromDomain maps a domain conversation to its payload.
func ConversationFromDomain(c *conversation.Conversation) ConversationPayload {
	return ConversationPayload{
		ID:                   c.PublicID,
		Title:                c.Title,
		ContextClassIDs:      emptyIfNil(c.ContextClassIDs),
		ContextAssignmentIDs: emptyIfNil(c.ContextAssignmentIDs),
		ContextPDFIDs:        emptyIfNil(c.ContextPDFIDs),
		ContextNoteIDs:       emptyIfNil(c.ContextNoteIDs),
		CreatedAt:            c.CreatedAt.Unix(),
		UpdatedAt:            c.UpdatedAt.Unix(),
	}
}

// ConversationListPayload wraps a page of conversations.
type ConversationListPayload struct {
	Data  []ConversationPayload `json:"data"`
	Total int64                 `json:"total"`
}

// MessagePayload is a single chat message returned to clients.
type MessagePayload struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
}

// MessageFromDomain maps a domain message to its payload.
func MessageFromDomain(m *conversation.Message) MessagePayload {
	return MessagePayload{
		ID:        m.PublicID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Unix(),
	}
}

// MessagesFromDomain maps a message list.
func MessagesFromDomain(msgs []*conversation.Message) []MessagePayload {
	out := make([]MessagePayload, len(msgs))
	for i, m := range msgs {
		out[i] = MessageFromDomain(m)
	}
	return out
}

// BrainPayload is a brain memory returned to clients.
type BrainPayload struct {
	ID          string    `json:"id"`
	BrainType   string    `json:"brain_type"`
	ClassID     *string   `json:"class_id"`
	Content     string    `json:"content"`
	UpdateCount int       `json:"update_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BrainFromDomain maps a domain brain to its payload.
func BrainFromDomain(b *brain.Brain) BrainPayload {
	return BrainPayload{
		ID:          b.PublicID,
		BrainType:   string(b.Type),
		ClassID:     b.ClassID,
		Content:     b.Content,
		UpdateCount: b.UpdateCount,
		UpdatedAt:   b.UpdatedAt,
	}
}

// BrainsFromDomain maps a brain list.
func BrainsFromDomain(brains []*brain.Brain) []BrainPayload {
	out := make([]BrainPayload, len(brains))
	for i, b := range brains {
		out[i] = BrainFromDomain(b)
	}
	return out
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
