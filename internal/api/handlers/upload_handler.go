package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greendrake/estates/internal/config"
	"greendrake/estates/internal/services"
	"greendrake/estates/internal/validation"
)

// multipartOverhead is the allowance for form boundaries and headers on top of the image itself.
const multipartOverhead = 1 << 20

// UploadHandler serves /api/uploads.
type UploadHandler struct {
	mediaService services.IMediaService
	cfg          *config.Config
	logger       *zap.Logger
}

func NewUploadHandler(mediaService services.IMediaService, cfg *config.Config, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{mediaService: mediaService, cfg: cfg, logger: logger}
}

// UploadImage handles POST /api/uploads/image with a multipart field named "image".
func (h *UploadHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.ImageMaxSizeBytes()+multipartOverhead)

	var in services.UploadInput
	header, err := c.FormFile("image")
	switch {
	case err == nil:
		file, err := header.Open()
		if err != nil {
			respondError(c, h.logger, fmt.Errorf("failed to open uploaded file: %w", err))
			return
		}
		defer file.Close()
		in = services.UploadInput{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	case isTooLarge(err):
		respondError(c, h.logger, validation.Errors{{
			Field:   "image",
			Message: fmt.Sprintf("image must be at most %d MB", h.cfg.ImageMaxSizeMB),
		}})
		return
	}

	res, err := h.mediaService.Upload(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, res)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
