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

func TestLocalPutDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocal(dir, "http://localhost:8080/")
	require.NoError(t, err)

	url, err := store.Put(ctx, "products/p1/img.png", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/products/p1/img.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "products", "p1", "img.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "products/p1/img.png"))
	_, err = os.Stat(filepath.Join(dir, "products", "p1", "img.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, "products/p1/img.png"))
}

func TestLocalKeyStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "")
	require.NoError(t, err)

	path, err := store.path("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))

	_, err = store.path("")
	assert.Error(t, err)
}

func TestObjectBaseURL(t *testing.T) {
	assert.Equal(t, "http://minio:9000/flowers", objectBaseURL(MinioConfig{Endpoint: "minio:9000", Bucket: "flowers"}))
	assert.Equal(t, "https://minio:9000/flowers", objectBaseURL(MinioConfig{Endpoint: "minio:9000", Bucket: "flowers", UseSSL: true}))
	assert.Equal(t, "https://cdn.example.com/flowers", objectBaseURL(MinioConfig{Bucket: "flowers", PublicBaseURL: "https://cdn.example.com/"}))
}
