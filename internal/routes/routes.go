package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hanneswrnr/glasschadenmelden/internal/handlers"
	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
	"github.com/hanneswrnr/glasschadenmelden/ws"
)

// RegisterRoutes registers all HTTP and WebSocket routes.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.Handler,
) {
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := ginRouter.Group("/api/v1")
	{
		appHandlers.ChatHandler.RegisterRoutes(api)
		appHandlers.FileHandler.RegisterRoutes(api)
	}

	// Auth travels as a query parameter here; the ws handler parses the
	// token itself.
	ginRouter.GET("/ws/claims/:claimID", wsHandler.ServeWS)

	logger.Info("Routes registered")
}
