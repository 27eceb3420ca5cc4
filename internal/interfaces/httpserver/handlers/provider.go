package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"helm-server/internal/domain/brain"
	"helm-server/internal/domain/chat"
	"helm-server/internal/domain/conversation"
	"helm-server/internal/domain/study"
	"helm-server/internal/interfaces/httpserver/responses"
	"helm-server/internal/utils/platformerrors"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Chat         *ChatHandler
	Conversation *ConversationHandler
	Brain        *BrainHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	orchestrator *chat.Orchestrator,
	conversations *conversation.Service,
	brains *brain.Store,
	studyRepo study.Repository,
	devIdentity bool,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Chat:         NewChatHandler(orchestrator, devIdentity, log),
		Conversation: NewConversationHandler(conversations, devIdentity, log),
		Brain:        NewBrainHandler(brains, orchestrator, studyRepo, devIdentity, log),
	}
}

// requireUser resolves the caller's identity. With auth enabled the JWT
// subject is authoritative; in development the X-User-ID header may stand in.
// Writes a 401 response and returns false when no identity can be resolved.
func requireUser(c *gin.Context, devIdentity bool) (string, bool) {
	if sub := extractSubject(c); sub != "" {
		return sub, true
	}
	if devIdentity {
		if header := c.GetHeader("X-User-ID"); header != "" {
			return header, true
		}
	}
	responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "user identity required", "")
	return "", false
}

func extractSubject(c *gin.Context) string {
	tokenValue, exists := c.Get("auth_token")
	if !exists {
		return ""
	}
	token, ok := tokenValue.(*jwt.Token)
	if !ok {
		return ""
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		if sub, ok := claims["sub"].(string); ok {
			return sub
		}
	}
	return ""
}
