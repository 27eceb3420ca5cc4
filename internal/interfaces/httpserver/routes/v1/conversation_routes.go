package v1

import (
	"github.com/gin-gonic/gin"

	"helm-server/internal/interfaces/httpserver/handlers"
)

func registerConversationRoutes(
	group *gin.RouterGroup,
	conversations *handlers.ConversationHandler,
	chat *handlers.ChatHandler,
	brains *handlers.BrainHandler,
) {
	conv := group.Group("/conversations")
	conv.POST("", conversations.Create)
	conv.GET("", conversations.List)
	conv.GET("/:conversation_id", conversations.Get)
	conv.PATCH("/:conversation_id/context", conversations.UpdateContext)
	conv.GET("/:conversation_id/messages", conversations.Messages)
	conv.DELETE("/:conversation_id", conversations.Delete)

	conv.POST("/:conversation_id/chat", chat.Stream)
	conv.POST("/:conversation_id/update-brain", brains.UpdateFromConversation)
}
