package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"greendrake/estates/internal/config"
	"greendrake/estates/internal/storage"
	"greendrake/estates/internal/tasks"
	"greendrake/estates/internal/validation"
)

const sniffLen = 512

var safeExt = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)

var commonExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadInput is one uploaded file. ContentType is the client's declaration and may be empty.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadResult struct {
	URL        string `json:"url"`
	ProviderID string `json:"providerId"`
}

type IMediaService interface {
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
}

type mediaService struct {
	storage    storage.IS3Storage
	taskClient ITaskEnqueuer
	cfg        *config.Config
	logger     *zap.Logger
}

func NewMediaService(storageService storage.IS3Storage, taskClient ITaskEnqueuer, cfg *config.Config, logger *zap.Logger) IMediaService {
	return &mediaService{storage: storageService, taskClient: taskClient, cfg: cfg, logger: logger}
}

func imageError(msg string) error {
	return validation.Errors{{Field: "image", Message: msg}}
}

// extensionFor keeps a short alphanumeric extension from the client's file name, falling back
// to one derived from the content type.
func extensionFor(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if safeExt.MatchString(ext) {
		return ext
	}
	if ext, ok := commonExt[contentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// seekable returns the upload as a rewindable reader with its exact length. Multipart files are
// used in place; other readers are buffered up to the size limit.
func (s *mediaService) seekable(r io.Reader) (io.ReadSeeker, int64, error) {
	limit := s.cfg.ImageMaxSizeBytes()
	tooLarge := imageError(fmt.Sprintf("image must be at most %d MB", s.cfg.ImageMaxSizeMB))

	if rs, ok := r.(io.ReadSeeker); ok {
		size, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to measure upload: %w", err)
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, 0, fmt.Errorf("failed to rewind upload: %w", err)
		}
		if size > limit {
			return nil, 0, tooLarge
		}
		return rs, size, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, 0, tooLarge
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

// Upload stores an image under UPLOAD_FOLDER/<uuid><ext> and schedules its post-processing.
// The context is handed to the provider, so a cancelled request aborts the transfer.
func (s *mediaService) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if in.Body == nil {
		return nil, badRequest("No image file provided")
	}
	if in.Size > s.cfg.ImageMaxSizeBytes() {
		return nil, imageError(fmt.Sprintf("image must be at most %d MB", s.cfg.ImageMaxSizeMB))
	}

	body, size, err := s.seekable(in.Body)
	if err != nil {
		return nil, err
	}

	contentType, _, _ := mime.ParseMediaType(in.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(body, head)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind upload: %w", err)
		}
		contentType, _, _ = mime.ParseMediaType(http.DetectContentType(head[:n]))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, imageError("image must be an image file")
	}

	key := s.cfg.UploadFolder + "/" + uuid.NewString() + extensionFor(in.Filename, contentType)
	if err := s.storage.Put(ctx, key, contentType, body, size); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Error("image upload failed", zap.String("key", key), zap.Error(err))
		return nil, &UploadFailedError{StatusCode: storage.StatusCode(err), Err: err}
	}

	task, err := tasks.NewImageProcessTask(key)
	if err == nil {
		_, err = s.taskClient.EnqueueContext(ctx, task)
	}
	if err != nil {
		s.logger.Warn("failed to enqueue image processing", zap.String("key", key), zap.Error(err))
	}

	return &UploadResult{URL: s.storage.PublicURL(key), ProviderID: key}, nil
}
