package handlers

import (
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/hanneswrnr/glasschadenmelden/internal/middleware"
	"github.com/hanneswrnr/glasschadenmelden/internal/storage"
	"github.com/hanneswrnr/glasschadenmelden/pkg/apperrors"
)

type FileHandler struct {
	*BaseHandler
	Storage storage.Storage
}

func NewFileHandler(base *BaseHandler, store storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		Storage:     store,
	}
}

func (h *FileHandler) RegisterRoutes(api *gin.RouterGroup) {
	files := api.Group("/files")
	files.Use(middleware.AuthMiddleware())
	{
		files.GET("/:claimID/:messageID/:fileName", h.ServeFile)
	}
}

// ServeFile streams an attachment by its store key
// <claimID>/<messageID>/<fileName>.
// GET /files/:claimID/:messageID/:fileName
func (h *FileHandler) ServeFile(c *gin.Context) {
	key := path.Join(c.Param("claimID"), c.Param("messageID"), c.Param("fileName"))

	ctx := c.Request.Context()

	exists, err := h.Storage.Exists(ctx, key)
	if err != nil || !exists {
		apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found"))
		return
	}

	reader, err := h.Storage.Get(ctx, key)
	if err != nil {
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", `inline; filename="`+c.Param("fileName")+`"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}
