package makerworks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Backend is the durable client-side storage shared by the state
// containers. Keys are namespaced by the backend; writes are
// last-write-wins. Load returns ErrKeyNotFound when a key is absent.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// envelope is the persisted state format shared by all stores, mirroring
// the web client's layout so rehydration can skip on version mismatch.
type envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// marshalEnvelope wraps a state subset in the versioned envelope.
func marshalEnvelope(state any) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorePersist, err)
	}
	return json.Marshal(envelope{State: raw, Version: EnvelopeVersion})
}

// unmarshalEnvelope decodes a persisted envelope into state. A corrupt
// body or an envelope written by a newer schema yields ErrStoreCorrupted;
// callers treat that as absent state, never as a fatal fault.
func unmarshalEnvelope(data []byte, state any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreCorrupted, err)
	}
	if env.Version > EnvelopeVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrStoreCorrupted, env.Version)
	}
	if len(env.State) == 0 {
		return fmt.Errorf("%w: missing state", ErrStoreCorrupted)
	}
	if err := json.Unmarshal(env.State, state); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreCorrupted, err)
	}
	return nil
}

// FileBackend stores each key as a JSON file under a state directory
// with atomic temp+rename writes.
type FileBackend struct {
	mu  sync.Mutex
	dir string
}

// NewFileBackend creates or opens a state directory. The directory is
// created with 0700 permissions if it does not exist.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, ErrMissingStateDir
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the state directory path.
func (b *FileBackend) Dir() string {
	return b.dir
}

func (b *FileBackend) path(key string) string {
	// Keys are fixed identifiers, but sanitize separators anyway.
	name := strings.NewReplacer("/", "-", string(os.PathSeparator), "-").Replace(key)
	return filepath.Join(b.dir, name+".json")
}

// Load implements Backend.
func (b *FileBackend) Load(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path(key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	// An empty file is valid and treated as an absent key.
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return data, nil
}

// Save implements Backend using the temp file + rename pattern so a
// crash mid-write never leaves a truncated state file behind.
func (b *FileBackend) Save(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := b.path(key)
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", ErrStorePersist, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: write: %v", ErrStorePersist, err)
	}

	// Fsync to ensure data is on disk before rename
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: fsync: %v", ErrStorePersist, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: close: %v", ErrStorePersist, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: rename: %v", ErrStorePersist, err)
	}
	return nil
}

// Delete implements Backend. Deleting an absent key is a no-op.
func (b *FileBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := os.Remove(b.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove: %v", ErrStorePersist, err)
	}
	return nil
}

// MemoryBackend is a map-backed Backend for tests and ephemeral sessions.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Load implements Backend.
func (b *MemoryBackend) Load(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Save implements Backend.
func (b *MemoryBackend) Save(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	b.data[key] = cp
	return nil
}

// Delete implements Backend.
func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.data, key)
	return nil
}
