package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/Dosada05/spormatch/storage"
)

const (
	sniffLength   = 512
	maxSlugLength = 40
)

type UploadService interface {
	// UploadImage stores an image and returns its public location.
	UploadImage(ctx context.Context, filename string, r io.Reader) (*storage.UploadResult, error)
}

type uploadService struct {
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewUploadService(uploader storage.FileUploader, logger *slog.Logger) UploadService {
	return &uploadService{uploader: uploader, logger: loggerOrDefault(logger)}
}

func (s *uploadService) UploadImage(ctx context.Context, filename string, r io.Reader) (*storage.UploadResult, error) {
	head := make([]byte, sniffLength)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if n == 0 {
		return nil, ErrEmptyFile
	}
	head = head[:n]

	// Тип определяем по содержимому, а не по заголовку клиента.
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrUnsupportedFileType
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, ErrUnsupportedFileType
	}

	key := objectKey(filename, ext)
	result, err := s.uploader.Upload(ctx, key, contentType, io.MultiReader(bytes.NewReader(head), r))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	s.logger.InfoContext(ctx, "Image uploaded", slog.String("key", result.Key), slog.String("content_type", contentType))
	return result, nil
}

// objectKey строит ключ вида uploads/<uuid>[-<slug>]<ext>.
func objectKey(filename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name := uuid.NewString()
	if s := slug.Make(base); s != "" && s != "." {
		if len(s) > maxSlugLength {
			s = strings.Trim(s[:maxSlugLength], "-")
		}
		name += "-" + s
	}
	return storage.KeyPrefix + name + ext
}

func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	case "image/bmp":
		return ".bmp", nil
	default:
		return "", fmt.Errorf("could not determine file extension from content type: '%s'", contentType)
	}
}
