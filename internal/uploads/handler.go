// Package uploads accepts event image uploads and hands them to an image store.
package uploads

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventboard/backend/internal/models"
	"github.com/eventboard/backend/pkg/apperrors"
	"github.com/eventboard/backend/pkg/response"
	"github.com/eventboard/backend/pkg/storage"
)

// FormField is the multipart field carrying the files.
const FormField = "images"

// Handler handles image uploads.
type Handler struct {
	store  storage.ImageStore
	logger *zap.Logger
}

// NewHandler creates an uploads handler.
func NewHandler(store storage.ImageStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// Upload handles POST /uploads (admin only). Every file of the "images" field is
// checked before any is stored; if storing one fails the ones already stored are
// removed again.
func (h *Handler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, h.logger, apperrors.NewValidationError("", "request body too large"))
			return
		}
		response.Error(c, h.logger, apperrors.NewValidationError(FormField, `"images" must be sent as multipart/form-data`))
		return
	}
	files := form.File[FormField]
	if len(files) == 0 {
		response.Error(c, h.logger, apperrors.NewValidationError(FormField, `"images" is required`))
		return
	}
	for _, fh := range files {
		if err := checkFile(fh); err != nil {
			response.Error(c, h.logger, err)
			return
		}
	}

	ctx := c.Request.Context()
	images := make([]models.Image, 0, len(files))
	var saved []string
	for _, fh := range files {
		key := storage.ImageKey(fh.Filename)
		p, err := h.save(c, fh, key)
		if err != nil {
			for _, k := range saved {
				if derr := h.store.Delete(ctx, k); derr != nil {
					h.logger.Warn("remove partial upload", zap.String("key", k), zap.Error(derr))
				}
			}
			response.Error(c, h.logger, err)
			return
		}
		saved = append(saved, key)
		images = append(images, models.Image{Path: p})
	}
	h.logger.Info("images uploaded", zap.Int("count", len(images)))
	response.Created(c, gin.H{"images": images})
}

func (h *Handler) save(c *gin.Context, fh *multipart.FileHeader, key string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.ContentTypeForFilename(fh.Filename)
	}
	p, err := h.store.Save(c.Request.Context(), key, contentType, f, fh.Size)
	if err != nil {
		return "", fmt.Errorf("store upload %s: %w", fh.Filename, err)
	}
	return p, nil
}

func checkFile(fh *multipart.FileHeader) error {
	if fh.Size > storage.MaxImageSize {
		return apperrors.NewValidationError(FormField,
			fmt.Sprintf("%q exceeds the %d MB limit", fh.Filename, storage.MaxImageSize>>20))
	}
	if !storage.ValidateImageFileType(fh.Header.Get("Content-Type"), fh.Filename) {
		return apperrors.NewValidationError(FormField,
			fmt.Sprintf("%q is not a supported image type", fh.Filename))
	}
	return nil
}
