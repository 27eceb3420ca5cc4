package v1

import (
	"github.com/gin-gonic/gin"

	"helm-server/internal/interfaces/httpserver/handlers"
)

func registerBrainRoutes(group *gin.RouterGroup, brains *handlers.BrainHandler) {
	group.GET("/brain", brains.GetGlobal)
	group.GET("/brain/class/:class_id", brains.GetClass)
	group.GET("/brains", brains.List)
}
