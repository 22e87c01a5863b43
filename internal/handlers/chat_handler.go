package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
	"github.com/hanneswrnr/glasschadenmelden/internal/middleware"
	chatService "github.com/hanneswrnr/glasschadenmelden/internal/services/chat"
	"github.com/hanneswrnr/glasschadenmelden/internal/services/dto"
	"github.com/hanneswrnr/glasschadenmelden/pkg/apperrors"
)

type ChatHandler struct {
	*BaseHandler
	Chat *chatService.Service
}

func NewChatHandler(base *BaseHandler, chat *chatService.Service) *ChatHandler {
	return &ChatHandler{
		BaseHandler: base,
		Chat:        chat,
	}
}

func (h *ChatHandler) RegisterRoutes(api *gin.RouterGroup) {
	claims := api.Group("/claims")
	claims.Use(middleware.AuthMiddleware())
	{
		claims.GET("/:claimID/chat", h.GetInfo)
		claims.GET("/:claimID/chat/messages", h.ListMessages)
		claims.POST("/:claimID/chat/messages", h.SendMessage)
	}
}

// GetInfo returns the conversation's read-only flag and retention countdown.
// GET /claims/:claimID/chat
func (h *ChatHandler) GetInfo(c *gin.Context) {
	userID, role, ok := middleware.CurrentUser(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Not authenticated"))
		return
	}
	claimID := c.Param("claimID")

	session, err := h.Chat.Open(claimID, userID, role)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	defer h.Chat.Release(claimID, userID)

	c.JSON(http.StatusOK, session.Info())
}

// ListMessages returns the conversation, grouped by calendar date when
// ?grouped=true.
// GET /claims/:claimID/chat/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, role, ok := middleware.CurrentUser(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Not authenticated"))
		return
	}
	claimID := c.Param("claimID")

	session, err := h.Chat.Open(claimID, userID, role)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	defer h.Chat.Release(claimID, userID)

	if c.Query("grouped") == "true" {
		c.JSON(http.StatusOK, gin.H{"groups": session.Groups()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": session.Messages()})
}

type sendMessageResult struct {
	Message    *dto.MessageResponse `json:"message"`
	Rejections []dto.FileRejection  `json:"rejections,omitempty"`
}

// SendMessage accepts a multipart form: a "body" text field plus up to five
// "files". Invalid files are rejected per file; the message still goes out
// with the rest.
// POST /claims/:claimID/chat/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, role, ok := middleware.CurrentUser(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Not authenticated"))
		return
	}
	claimID := c.Param("claimID")

	body := c.PostForm("body")

	var rejections []dto.FileRejection
	var inputs []chatService.FileInput

	form, err := c.MultipartForm()
	if err == nil && form != nil {
		for _, header := range form.File["files"] {
			pending := chatService.PendingFile{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
			}
			if rejection := chatService.ValidateFile(pending); rejection != nil {
				rejections = append(rejections, *rejection)
				continue
			}
			if len(inputs) >= chatService.MaxAttachmentsPerMessage {
				// Cap reached: silently truncated, first-come wins.
				break
			}

			file, err := header.Open()
			if err != nil {
				logger.CtxWithError(c.Request.Context(), "could not open uploaded file", err,
					"file_name", header.Filename)
				rejections = append(rejections, dto.FileRejection{
					FileName: header.Filename,
					Reason:   "could not read the uploaded file",
				})
				continue
			}
			defer file.Close()

			inputs = append(inputs, chatService.FileInput{
				Name:        header.Filename,
				ContentType: pending.ContentType,
				Size:        header.Size,
				Reader:      file,
			})
		}
	}

	if strings.TrimSpace(body) == "" && len(inputs) == 0 {
		apperrors.HandleError(c, apperrors.NewEmptyMessageError())
		return
	}

	session, err := h.Chat.Open(claimID, userID, role)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	defer h.Chat.Release(claimID, userID)

	message, err := session.SendMessage(c.Request.Context(), body, inputs)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if message == nil {
		// Dropped by the in-flight guard.
		apperrors.HandleError(c, apperrors.NewSendInFlightError())
		return
	}

	c.JSON(http.StatusCreated, sendMessageResult{
		Message:    message,
		Rejections: rejections,
	})
}
