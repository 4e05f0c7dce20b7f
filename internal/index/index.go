package index

import (
	"sort"
	"sync"
)

// Index maps each live key to the log offset of its latest value payload.
//
// It is a cache derived from the log and is never persisted. Operations on a
// single key are linearizable; nothing is ordered across keys.
type Index struct {
	mutex   sync.RWMutex
	offsets map[string]int64
}

// New creates an empty Index
func New() *Index {
	return &Index{
		offsets: make(map[string]int64),
	}
}

// Get returns the payload offset recorded for key
func (i *Index) Get(key string) (int64, bool) {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	offset, ok := i.offsets[key]
	return offset, ok
}

// Upsert records offset for key, replacing any previous mapping
func (i *Index) Upsert(key string, offset int64) {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	i.offsets[key] = offset
}

// Remove deletes key and returns the offset it mapped to, if any
func (i *Index) Remove(key string) (int64, bool) {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	offset, ok := i.offsets[key]
	if ok {
		delete(i.offsets, key)
	}
	return offset, ok
}

// Len returns the number of live keys
func (i *Index) Len() int {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	return len(i.offsets)
}

// Keys returns the live keys in sorted order
func (i *Index) Keys() []string {
	i.mutex.RLock()
	keys := make([]string, 0, len(i.offsets))
	for k := range i.offsets {
		keys = append(keys, k)
	}
	i.mutex.RUnlock()

	sort.Strings(keys)
	return keys
}
