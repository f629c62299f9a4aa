package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundTrip(t *testing.T) {
	t.Parallel()
	backend, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	store := NewStore(backend)

	meta, err := store.Create("disk session", []string{"chronicler"})
	require.NoError(t, err)
	require.NoError(t, store.Append(meta.ID, Message{Role: "user", Content: "hello"}))

	got, messages, err := store.Get(meta.ID)
	require.NoError(t, err)
	require.Equal(t, meta.ID, got.ID)
	require.Equal(t, "disk session", got.Name)
	require.Len(t, messages, 1)
	require.Equal(t, "hello", messages[0].Content)
}

func TestFileStorageLayout(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	backend, err := NewFileStorage(root)
	require.NoError(t, err)
	store := NewStore(backend)

	meta, err := store.Create("layout", nil)
	require.NoError(t, err)
	require.NoError(t, store.Append(meta.ID, Message{Role: "user", Content: "one"}))

	require.FileExists(t, filepath.Join(root, meta.ID, "metadata.json"))
	require.FileExists(t, filepath.Join(root, meta.ID, "messages.jsonl"))
}

func TestFileStorageConcurrentAppendsDoNotCorruptLog(t *testing.T) {
	t.Parallel()
	backend, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	store := NewStore(backend)
	meta, err := store.Create("contended", nil)
	require.NoError(t, err)

	const writers = 16
	const perWriter = 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				msg := Message{Role: "user", Content: fmt.Sprintf("writer-%d-msg-%d", w, i)}
				if err := store.Append(meta.ID, msg); err != nil {
					t.Errorf("append: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	_, messages, err := store.Get(meta.ID)
	require.NoError(t, err)
	require.Len(t, messages, writers*perWriter)
	for _, msg := range messages {
		require.NotEmpty(t, msg.Content, "corrupted log entry")
	}
}

func TestFileStorageDeleteRemovesDirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	backend, err := NewFileStorage(root)
	require.NoError(t, err)
	store := NewStore(backend)

	meta, err := store.Create("gone", nil)
	require.NoError(t, err)
	require.NoError(t, store.Delete(meta.ID))

	_, statErr := os.Stat(filepath.Join(root, meta.ID))
	require.True(t, os.IsNotExist(statErr))
	_, _, err = store.Get(meta.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStorageRejectsUnsafeIDsBeforeDiskAccess(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	backend, err := NewFileStorage(root)
	require.NoError(t, err)

	victim := filepath.Join(root, "..", "victim")
	require.NoError(t, os.MkdirAll(victim, 0o755))

	require.ErrorIs(t, backend.Delete("../victim"), ErrInvalidID)
	_, statErr := os.Stat(victim)
	require.NoError(t, statErr, "escaping delete must not touch the filesystem")
}

func TestFileStorageListSkipsStrayFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	backend, err := NewFileStorage(root)
	require.NoError(t, err)
	store := NewStore(backend)

	meta, err := store.Create("real", nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty-dir"), 0o755))

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, meta.ID, all[0].ID)
}
