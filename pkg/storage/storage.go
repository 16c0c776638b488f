// Package storage keeps uploaded event images on S3 or on local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxImageSize is the maximum allowed size of one uploaded image (10MB).
	MaxImageSize = 10 * 1024 * 1024
	// FolderImages is the key prefix for event images.
	FolderImages = "images"
)

var (
	// ErrUnsupportedType is returned for files that are not an allowed image type.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge is returned for files above MaxImageSize.
	ErrTooLarge = errors.New("file too large")
)

// Allowed image MIME types and extensions.
var (
	AllowedImageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
		"image/gif":  ".gif",
	}
	AllowedImageExtensions = map[string]string{
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".webp": "image/webp",
		".gif":  "image/gif",
	}
)

// ImageStore persists image objects and returns the path clients fetch them from.
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// ValidateImageFileType returns true if the content type or the extension is an
// allowed image type.
func ValidateImageFileType(contentType, filename string) bool {
	if contentType != "" {
		ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
		if _, ok := AllowedImageTypes[ct]; ok {
			return true
		}
	}
	ext := strings.ToLower(path.Ext(filename))
	_, ok := AllowedImageExtensions[ext]
	return ok
}

// ContentTypeForFilename returns the MIME type for an image filename extension.
func ContentTypeForFilename(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ct, ok := AllowedImageExtensions[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ImageKey returns a fresh object key for an uploaded file: images/{uuid}{ext}. The
// client filename only contributes its extension.
func ImageKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := AllowedImageExtensions[ext]; !ok {
		ext = ""
	}
	return path.Join(FolderImages, uuid.NewString()+ext)
}
