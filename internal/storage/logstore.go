package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
	"github.com/sajjad-MoBe/logkv/internal/index"
	"github.com/sajjad-MoBe/logkv/internal/lock"
	"github.com/sajjad-MoBe/logkv/internal/record"
)

// ErrClosed is wrapped by every operation on a closed store
var ErrClosed = errors.New("log store is closed")

// StorageMetrics tracks log store metrics
type StorageMetrics struct {
	TotalKeys       int64
	LogSize         int64
	ReadCount       int64
	WriteCount      int64
	DeleteCount     int64
	ErrorCount      int64
	ReplayedRecords int64
}

// Option configures a LogStore
type Option func(*options)

type options struct {
	syncWrites bool
}

// WithSyncWrites controls whether every appended record is fsynced before the
// index is updated. Enabled by default.
func WithSyncWrites(enabled bool) Option {
	return func(o *options) {
		o.syncWrites = enabled
	}
}

// logFile is the part of *os.File the store uses
type logFile interface {
	io.ReadWriteSeeker
	io.Closer
	Stat() (os.FileInfo, error)
	Sync() error
	Truncate(size int64) error
}

// LogStore owns one append-only log file and the Index derived from it.
//
// A LogStore is not safe for concurrent use: the file has a single cursor
// shared by reads and appends. Share it through shared.Handle.
type LogStore struct {
	path       string
	file       logFile
	lockFile   *os.File
	index      *index.Index
	syncWrites bool
	closed     bool
	metrics    *StorageMetrics
}

// Open opens or creates the log at path and rebuilds the index by replaying
// it. Any failure is fatal: no partially built store is returned.
func Open(path string, opts ...Option) (*LogStore, error) {
	o := options{syncWrites: true}
	for _, opt := range opts {
		opt(&o)
	}

	lf, err := lock.Acquire(lock.PathFor(path))
	if err != nil {
		return nil, kvErr.New(kvErr.ErrorTypeIO, "failed to lock log file", err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		lock.Release(lf)
		return nil, kvErr.New(kvErr.ErrorTypeIO, "failed to open log file", err)
	}

	s := &LogStore{
		path:       path,
		file:       file,
		lockFile:   lf,
		index:      index.New(),
		syncWrites: o.syncWrites,
		metrics:    &StorageMetrics{},
	}

	if err := s.load(); err != nil {
		file.Close()
		lock.Release(lf)
		return nil, err
	}

	return s, nil
}

func (s *LogStore) load() error {
	info, err := s.file.Stat()
	if err != nil {
		return kvErr.New(kvErr.ErrorTypeIO, "failed to stat log file", err)
	}

	if info.Size() > 0 {
		if err := s.replay(); err != nil {
			return err
		}
		// sentinel after a successful replay
		if _, err := s.append([]byte("\n"), true); err != nil {
			return err
		}
	}

	size, err := s.file.Seek(0, io.SeekEnd)
	if err != nil {
		return kvErr.New(kvErr.ErrorTypeIO, "failed to seek log file", err)
	}
	atomic.StoreInt64(&s.metrics.LogSize, size)
	atomic.StoreInt64(&s.metrics.TotalKeys, int64(s.index.Len()))
	return nil
}

// replay reads the whole log from byte 0 and applies every record in order.
func (s *LogStore) replay() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return kvErr.New(kvErr.ErrorTypeIO, "failed to seek log file", err)
	}

	reader := bufio.NewReader(s.file)
	var offset int64

	for {
		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			if err := s.applyLine(line, offset); err != nil {
				return kvErr.New(kvErr.TypeOf(err), fmt.Sprintf("replay failed at offset %d", offset), err)
			}
			offset += int64(len(line))
		}

		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return kvErr.New(kvErr.ErrorTypeIO, "failed to read log file", readErr)
		}
	}
}

func (s *LogStore) applyLine(line []byte, offset int64) error {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}

	h, err := record.ParseHeader(line)
	if err != nil {
		return err
	}

	switch h.Kind {
	case record.KindWrite:
		rec, err := record.DecodePayload(line[h.Len():])
		if err != nil {
			return err
		}
		s.index.Upsert(rec.Key, offset+int64(h.Len()))
	case record.KindRemove:
		key, err := record.DecodeRemove(line)
		if err != nil {
			return err
		}
		s.index.Remove(key)
	}

	atomic.AddInt64(&s.metrics.ReplayedRecords, 1)
	return nil
}

// Get returns the latest value written for key
func (s *LogStore) Get(key string) ([]byte, error) {
	if s.closed {
		return nil, s.closedError()
	}
	atomic.AddInt64(&s.metrics.ReadCount, 1)

	offset, ok := s.index.Get(key)
	if !ok {
		atomic.AddInt64(&s.metrics.ErrorCount, 1)
		return nil, kvErr.New(kvErr.ErrorTypeNotFound, "key not found: "+key, nil)
	}

	if _, err := s.file.Seek(offset, io.SeekStart); err != nil {
		return nil, s.fail(kvErr.ErrorTypeIO, "failed to seek log file", err)
	}

	payload, err := bufio.NewReader(s.file).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, s.fail(kvErr.ErrorTypeIO, "failed to read log file", err)
	}

	rec, err := record.DecodePayload(payload)
	if err != nil {
		atomic.AddInt64(&s.metrics.ErrorCount, 1)
		return nil, err
	}
	if rec.Key != key {
		return nil, s.fail(kvErr.ErrorTypeSerialization,
			fmt.Sprintf("record at offset %d belongs to key %q", offset, rec.Key), nil)
	}

	return rec.Value, nil
}

// Set appends a write record for key and points the index at it
func (s *LogStore) Set(key string, value []byte) error {
	if s.closed {
		return s.closedError()
	}

	line, err := record.EncodeWrite(key, value)
	if err != nil {
		atomic.AddInt64(&s.metrics.ErrorCount, 1)
		return err
	}

	offset, err := s.append(line, s.syncWrites)
	if err != nil {
		return err
	}

	s.index.Upsert(key, offset+int64(record.WriteHeaderLen))
	atomic.AddInt64(&s.metrics.WriteCount, 1)
	atomic.StoreInt64(&s.metrics.TotalKeys, int64(s.index.Len()))
	return nil
}

// Remove appends a tombstone for key and drops it from the index. Removing
// an absent key is a no-op and appends nothing.
func (s *LogStore) Remove(key string) error {
	if s.closed {
		return s.closedError()
	}

	if _, ok := s.index.Get(key); !ok {
		return nil
	}

	line, err := record.EncodeRemove(key)
	if err != nil {
		atomic.AddInt64(&s.metrics.ErrorCount, 1)
		return err
	}

	if _, err := s.append(line, s.syncWrites); err != nil {
		return err
	}

	s.index.Remove(key)
	atomic.AddInt64(&s.metrics.DeleteCount, 1)
	atomic.StoreInt64(&s.metrics.TotalKeys, int64(s.index.Len()))
	return nil
}

// append writes line at the end of the log and returns the offset it starts
// at. A failed write or sync is truncated away, so replay never applies a
// record the caller was told failed.
func (s *LogStore) append(line []byte, sync bool) (int64, error) {
	offset, err := s.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, s.fail(kvErr.ErrorTypeIO, "failed to seek log file", err)
	}

	if _, err := s.file.Write(line); err != nil {
		return 0, s.fail(kvErr.ErrorTypeIO, "failed to append to log file", s.rollback(offset, err))
	}

	if sync {
		if err := s.file.Sync(); err != nil {
			return 0, s.fail(kvErr.ErrorTypeIO, "failed to sync log file", s.rollback(offset, err))
		}
	}

	atomic.StoreInt64(&s.metrics.LogSize, offset+int64(len(line)))
	return offset, nil
}

// rollback cuts the log back to offset after a failed append and returns
// cause joined with any truncate error.
func (s *LogStore) rollback(offset int64, cause error) error {
	if err := s.file.Truncate(offset); err != nil {
		return errors.Join(cause, fmt.Errorf("truncate to %d: %w", offset, err))
	}
	atomic.StoreInt64(&s.metrics.LogSize, offset)
	return cause
}

// Keys returns the live keys in sorted order
func (s *LogStore) Keys() []string {
	return s.index.Keys()
}

// Len returns the number of live keys
func (s *LogStore) Len() int {
	return s.index.Len()
}

// Path returns the log file path
func (s *LogStore) Path() string {
	return s.path
}

// Size returns the current size of the log file in bytes
func (s *LogStore) Size() (int64, error) {
	if s.closed {
		return 0, s.closedError()
	}
	info, err := s.file.Stat()
	if err != nil {
		return 0, s.fail(kvErr.ErrorTypeIO, "failed to stat log file", err)
	}
	return info.Size(), nil
}

// GetMetrics returns the current storage metrics
func (s *LogStore) GetMetrics() *StorageMetrics {
	return &StorageMetrics{
		TotalKeys:       atomic.LoadInt64(&s.metrics.TotalKeys),
		LogSize:         atomic.LoadInt64(&s.metrics.LogSize),
		ReadCount:       atomic.LoadInt64(&s.metrics.ReadCount),
		WriteCount:      atomic.LoadInt64(&s.metrics.WriteCount),
		DeleteCount:     atomic.LoadInt64(&s.metrics.DeleteCount),
		ErrorCount:      atomic.LoadInt64(&s.metrics.ErrorCount),
		ReplayedRecords: atomic.LoadInt64(&s.metrics.ReplayedRecords),
	}
}

// Close closes the log file and releases the lock. Later calls are no-ops.
func (s *LogStore) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	fileErr := s.file.Close()
	lockErr := lock.Release(s.lockFile)
	if fileErr != nil {
		return kvErr.New(kvErr.ErrorTypeIO, "failed to close log file", fileErr)
	}
	if lockErr != nil {
		return kvErr.New(kvErr.ErrorTypeIO, "failed to release log lock", lockErr)
	}
	return nil
}

func (s *LogStore) fail(errType kvErr.ErrorType, message string, err error) error {
	atomic.AddInt64(&s.metrics.ErrorCount, 1)
	return kvErr.New(errType, message, err)
}

func (s *LogStore) closedError() error {
	return s.fail(kvErr.ErrorTypeIO, "operation on closed store", ErrClosed)
}
