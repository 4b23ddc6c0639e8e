package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paperforge/paperforge-backend/internal/middleware"
	"github.com/paperforge/paperforge-backend/internal/response"
	"github.com/paperforge/paperforge-backend/internal/service"
)

// MediaHandler handles media upload endpoints.
type MediaHandler struct {
	paperService *service.PaperService
	mediaService *service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(paperService *service.PaperService, mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{
		paperService: paperService,
		mediaService: mediaService,
	}
}

// UploadPaperImage godoc
// POST /api/v1/papers/:paper_id/images
// Uploads an image for a paper and returns its stable URL. Oversize files
// get 413, unsupported types 415.
func (h *MediaHandler) UploadPaperImage(c *gin.Context) {
	claims := middleware.GetClaims(c)
	paperID, ok := parseID(c, "paper_id")
	if !ok {
		return
	}
	if err := h.paperService.VerifyOwner(c.Request.Context(), claims.AuthorID, paperID); err != nil {
		failResource(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	url, err := h.mediaService.SaveUpload(paperID, file, header)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.Fail(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"url": url})
}
