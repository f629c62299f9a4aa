package session

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	metadataFile = "metadata.json"
	messagesFile = "messages.jsonl"
)

// FileStorage keeps one directory per session under root, holding a JSON
// metadata document and a line-delimited message log. Appends to a single
// session are serialized by a per-id mutex; different sessions never contend.
type FileStorage struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStorage ensures the storage root exists and returns the backend.
func NewFileStorage(root string) (*FileStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("session: ensure storage root: %w", err)
	}
	return &FileStorage{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (f *FileStorage) dir(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(f.root, id), nil
}

func (f *FileStorage) lock(id string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[id]
	if !ok {
		l = &sync.Mutex{}
		f.locks[id] = l
	}
	return l
}

func (f *FileStorage) dropLock(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, id)
}

// WriteMetadata persists the metadata document, creating the session
// directory on first write. The document is written to a temp file and
// renamed into place so concurrent readers never see a torn write.
func (f *FileStorage) WriteMetadata(meta Metadata) error {
	dir, err := f.dir(meta.ID)
	if err != nil {
		return err
	}
	l := f.lock(meta.ID)
	l.Lock()
	defer l.Unlock()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("session: ensure dir %s: %w", meta.ID, err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode metadata %s: %w", meta.ID, err)
	}
	tmp := filepath.Join(dir, metadataFile+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("session: write metadata %s: %w", meta.ID, err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, metadataFile)); err != nil {
		return fmt.Errorf("session: commit metadata %s: %w", meta.ID, err)
	}
	return nil
}

// ReadMetadata loads the metadata document, reporting ErrNotFound when the
// session has no persisted state.
func (f *FileStorage) ReadMetadata(id string) (Metadata, error) {
	dir, err := f.dir(id)
	if err != nil {
		return Metadata{}, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, ErrNotFound
		}
		return Metadata{}, fmt.Errorf("session: read metadata %s: %w", id, err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("session: decode metadata %s: %w", id, err)
	}
	return meta, nil
}

// ReadMessages loads the full message log in append order. A session with no
// log file yet has an empty history.
func (f *FileStorage) ReadMessages(id string) ([]Message, error) {
	dir, err := f.dir(id)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(dir, messagesFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: open log %s: %w", id, err)
	}
	defer file.Close()
	var messages []Message
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("session: decode log entry %s: %w", id, err)
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("session: scan log %s: %w", id, err)
	}
	return messages, nil
}

// AppendMessage writes one log entry as a single O_APPEND write, so
// concurrent appends to the same session never interleave partial lines.
func (f *FileStorage) AppendMessage(id string, msg Message) error {
	dir, err := f.dir(id)
	if err != nil {
		return err
	}
	l := f.lock(id)
	l.Lock()
	defer l.Unlock()
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("session: stat %s: %w", id, err)
	}
	line, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("session: encode log entry %s: %w", id, err)
	}
	file, err := os.OpenFile(filepath.Join(dir, messagesFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("session: open log %s: %w", id, err)
	}
	defer file.Close()
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("session: append log %s: %w", id, err)
	}
	return nil
}

// Delete removes the session directory and its append lock.
func (f *FileStorage) Delete(id string) error {
	dir, err := f.dir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("session: stat %s: %w", id, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	f.dropLock(id)
	return nil
}

// List loads metadata for every session directory under the root. Entries
// without a readable metadata document are skipped rather than failing the
// whole listing.
func (f *FileStorage) List() ([]Metadata, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: read root: %w", err)
	}
	var all []Metadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := f.ReadMetadata(entry.Name())
		if err != nil {
			continue
		}
		all = append(all, meta)
	}
	return all, nil
}
