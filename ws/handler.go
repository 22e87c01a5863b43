package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/hanneswrnr/glasschadenmelden/internal/auth"
	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
	chatService "github.com/hanneswrnr/glasschadenmelden/internal/services/chat"
	"github.com/hanneswrnr/glasschadenmelden/pkg/apperrors"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is checked by the reverse proxy
	},
}

type Handler struct {
	Manager *Manager
	Chat    *chatService.Service
}

func NewHandler(manager *Manager, chat *chatService.Service) *Handler {
	return &Handler{
		Manager: manager,
		Chat:    chat,
	}
}

// ServeWS upgrades the connection and binds a chat session for the claim.
// Browsers cannot set headers on websocket requests, so the token travels as
// a query parameter.
// GET /ws/claims/:claimID?token=...
func (h *Handler) ServeWS(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token query parameter is required"})
		return
	}

	claims, err := auth.ParseToken(tokenStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	claimID := c.Param("claimID")

	session, err := h.Chat.Open(claimID, claims.UserID, claims.Role)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Chat.Release(claimID, claims.UserID)
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		ClaimID: claimID,
		UserID:  claims.UserID,
		Conn:    conn,
		Send:    make(chan Event, clientSendBuffer),
		Manager: h.Manager,
		Session: session,
		release: func() { h.Chat.Release(claimID, claims.UserID) },
	}

	h.Manager.Register(client)

	go client.readPump()
	go client.writePump()
}
