package shared

import (
	"fmt"
	"strings"
	"sync"

	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
	"github.com/sajjad-MoBe/logkv/internal/record"
	"github.com/sajjad-MoBe/logkv/internal/storage"
)

// Handle serializes access to one LogStore. Every method holds the lock for
// its whole duration, so operations from all front-ends form a single total
// order. Handle is safe for concurrent use.
type Handle struct {
	mutex sync.Mutex
	store *storage.LogStore
}

// New wraps an already opened store
func New(store *storage.LogStore) *Handle {
	return &Handle{store: store}
}

// Open opens the log at path and wraps it in a Handle
func Open(path string, opts ...storage.Option) (*Handle, error) {
	store, err := storage.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return New(store), nil
}

// Get returns the value stored under key
func (h *Handle) Get(key string) ([]byte, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.store.Get(key)
}

// Set stores value under key
func (h *Handle) Set(key string, value []byte) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.store.Set(key, value)
}

// Remove deletes key. Removing an absent key succeeds.
func (h *Handle) Remove(key string) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.store.Remove(key)
}

// Keys returns the live keys in sorted order
func (h *Handle) Keys() []string {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.store.Keys()
}

// Len returns the number of live keys
func (h *Handle) Len() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.store.Len()
}

// Snapshot returns every live record sorted by key, read under one lock
// acquisition.
func (h *Handle) Snapshot() ([]record.Record, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	keys := h.store.Keys()
	records := make([]record.Record, 0, len(keys))
	for _, key := range keys {
		value, err := h.store.Get(key)
		if err != nil {
			return nil, err
		}
		records = append(records, record.Record{Key: key, Value: value})
	}
	return records, nil
}

// Metrics returns the store metrics
func (h *Handle) Metrics() *storage.StorageMetrics {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.store.GetMetrics()
}

// Path returns the log file path
func (h *Handle) Path() string {
	return h.store.Path()
}

// Close closes the underlying store
func (h *Handle) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	return h.store.Close()
}

// Dispatch executes op. Reads return the value; writes and removes return nil
// on success.
func (h *Handle) Dispatch(op Operation) ([]byte, error) {
	switch op := op.(type) {
	case Read:
		value, err := h.Get(normalizeReadKey(op.Key))
		if err != nil {
			return nil, kvErr.New(kvErr.ErrorTypeInvalidFileHeader, "failed to read key", err)
		}
		return value, nil
	case Insert:
		return nil, h.Set(op.Key, op.Value)
	case Update:
		return nil, h.Set(op.Key, op.Value)
	case Remove:
		return nil, h.Remove(op.Key)
	case Invalid:
		return nil, kvErr.New(kvErr.ErrorTypeInvalidCommand,
			fmt.Sprintf("invalid command %q: %s", op.Input, op.Reason), nil)
	default:
		return nil, kvErr.New(kvErr.ErrorTypeInvalidCommand, "unsupported operation", nil)
	}
}

// normalizeReadKey accepts keys passed as "read <key>"
func normalizeReadKey(key string) string {
	const prefix = "read "
	key = strings.TrimSpace(key)
	if len(key) >= len(prefix) && strings.EqualFold(key[:len(prefix)], prefix) {
		key = strings.TrimSpace(key[len(prefix):])
	}
	return key
}
