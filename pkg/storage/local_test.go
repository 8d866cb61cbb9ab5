package storage

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewLocalStore(t.TempDir(), "http://files.example.com/fileBase", logger)
}

func TestLocalStore_RoundTrip(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDirectory(ctx, "anna-77"))

	exists, err := store.Exists(ctx, "anna-77")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.UploadFile(ctx, "anna-77/photo1.jpg", []byte("jpeg bytes")))

	files, err := store.ListFiles(ctx, "anna-77")
	require.NoError(t, err)
	assert.Equal(t, []string{"photo1.jpg"}, files)

	require.NoError(t, store.DeleteFile(ctx, "anna-77/photo1.jpg"))

	files, err = store.ListFiles(ctx, "anna-77")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLocalStore_MissingPaths(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)

	files, err := store.ListFiles(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, files)

	// Deleting a missing file is not an error.
	assert.NoError(t, store.DeleteFile(ctx, "nope/file.jpg"))
}

func TestLocalStore_UploadCreatesParents(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	require.NoError(t, store.UploadFile(ctx, "deep/nested/dir/file.jpg", []byte("x")))

	files, err := store.ListFiles(ctx, "deep/nested/dir")
	require.NoError(t, err)
	assert.Equal(t, []string{"file.jpg"}, files)
}

func TestLocalStore_PublicURL(t *testing.T) {
	store := newLocalStore(t)

	assert.Equal(t, "http://files.example.com/fileBase/anna-77/photo1.jpg",
		store.PublicURL("anna-77/photo1.jpg"))
	assert.Equal(t, "http://files.example.com/fileBase/anna-77/photo1.jpg",
		store.PublicURL("/anna-77/photo1.jpg"))
}
