package storage_test

import (
	"path/filepath"
	"strings"
	"testing"

	"reportflow/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAttachmentStore_SaveAndRead(t *testing.T) {
	store, err := storage.NewLocalAttachmentStore(t.TempDir(), nil)
	require.NoError(t, err)

	reportID := uuid.New()
	content := []byte("inspection notes")

	rel, err := store.Save(reportID, "INITIAL", "notes.pdf", content)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, reportID.String()+string(filepath.Separator)))
	assert.Contains(t, rel, "initial")
	assert.True(t, strings.HasSuffix(rel, "_notes.pdf"))

	got, err := store.Read(rel)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalAttachmentStore_SameNameNeverCollides(t *testing.T) {
	store, err := storage.NewLocalAttachmentStore(t.TempDir(), nil)
	require.NoError(t, err)

	reportID := uuid.New()
	first, err := store.Save(reportID, "INITIAL", "photo.jpg", []byte("a"))
	require.NoError(t, err)
	second, err := store.Save(reportID, "INITIAL", "photo.jpg", []byte("b"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	a, err := store.Read(first)
	require.NoError(t, err)
	b, err := store.Read(second)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalAttachmentStore_SanitizesFileNames(t *testing.T) {
	store, err := storage.NewLocalAttachmentStore(t.TempDir(), nil)
	require.NoError(t, err)

	rel, err := store.Save(uuid.New(), "INITIAL", "../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rel, "_passwd"))
	assert.NotContains(t, rel, "..")
}

func TestLocalAttachmentStore_ReadRejectsTraversal(t *testing.T) {
	store, err := storage.NewLocalAttachmentStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = store.Read("../outside.txt")
	assert.Error(t, err)
}
