package storage_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"chaya/internal/storage"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	path := storage.ObjectPath(storage.CategoryProfilePic, "ABCD1234567_1.png")

	err := store.Upload(ctx, path, bytes.NewReader([]byte("data")), 4, "image/png")
	assert.NoError(t, err)
	assert.True(t, store.Exists(path))
	assert.Equal(t, 1, store.Len())

	url, err := store.SignedURL(ctx, path, time.Hour)
	assert.NoError(t, err)
	assert.Contains(t, url, path)

	// Signing a missing object fails
	_, err = store.SignedURL(ctx, "profile-pic/missing.png", time.Hour)
	assert.Error(t, err)

	// Removing missing objects is not an error
	assert.NoError(t, store.Remove(ctx, path, "profile-pic/missing.png"))
	assert.False(t, store.Exists(path))
	assert.Equal(t, 0, store.Len())
}

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "aadhar-doc/ABCD1234567_1.pdf", storage.ObjectPath(storage.CategoryAadharDoc, "ABCD1234567_1.pdf"))
	assert.Equal(t, "exports/farmers_1.csv", storage.ObjectPath(storage.ExportPrefix, "farmers_1.csv"))
}
