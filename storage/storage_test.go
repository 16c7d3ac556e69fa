package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUploaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	up, err := NewLocalUploader(dir, "http://localhost:8080")
	require.NoError(t, err)

	res, err := up.Upload(context.Background(), KeyPrefix+"ball.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/ball.png", res.Location)
	assert.NotEmpty(t, res.ETag)

	data, err := os.ReadFile(filepath.Join(dir, "ball.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, up.Delete(context.Background(), KeyPrefix+"ball.png"))
	_, err = os.Stat(filepath.Join(dir, "ball.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalUploaderRejectsTraversal(t *testing.T) {
	up, err := NewLocalUploader(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	for _, key := range []string{KeyPrefix + "../etc/passwd", KeyPrefix + "a/b.png", KeyPrefix} {
		_, err := up.Upload(context.Background(), key, "image/png", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestJoinPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.spormatch.app/uploads/a.jpg", joinPublicURL("https://cdn.spormatch.app/", "uploads/a.jpg"))
	assert.Equal(t, "https://cdn.spormatch.app/media/uploads/a.jpg", joinPublicURL("https://cdn.spormatch.app/media", "/uploads/a.jpg"))
	assert.Empty(t, joinPublicURL("", "uploads/a.jpg"))
}

func TestNewCloudflareR2UploaderRequiresConfig(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{AccountID: "acc"})
	assert.Error(t, err)
}
