package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// KeyPrefix is the common prefix of every stored object key.
const KeyPrefix = "uploads/"

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// joinPublicURL склеивает базовый URL и ключ объекта. Пустая строка при ошибке.
func joinPublicURL(base, key string) string {
	if base == "" || key == "" {
		return ""
	}
	u, err := url.JoinPath(base, strings.Split(strings.TrimPrefix(key, "/"), "/")...)
	if err != nil {
		return ""
	}
	return u
}
