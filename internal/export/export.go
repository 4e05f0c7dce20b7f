// Package export writes the live contents of a store to a JSON file.
package export

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/kjk/common/atomicfile"

	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
	"github.com/sajjad-MoBe/logkv/internal/record"
)

// Source provides the records to export
type Source interface {
	Snapshot() ([]record.Record, error)
}

// Entry is one exported key/value pair. Value holds the raw bytes as a JSON
// array of numbers; Text is set when the value is valid UTF-8.
type Entry struct {
	Key   string       `json:"key"`
	Value record.Bytes `json:"value"`
	Text  string       `json:"text,omitempty"`
}

// ToFile writes every live record of src to path as a JSON array sorted by
// key. The file is replaced atomically: readers see the old or the new
// content, never a partial write. It returns the number of records written.
func ToFile(src Source, path string) (int, error) {
	records, err := src.Snapshot()
	if err != nil {
		return 0, err
	}

	entries := make([]Entry, len(records))
	for i, rec := range records {
		entries[i] = Entry{Key: rec.Key, Value: rec.Value}
		if utf8.Valid(rec.Value) {
			entries[i].Text = string(rec.Value)
		}
	}

	f, err := atomicfile.New(path)
	if err != nil {
		return 0, kvErr.New(kvErr.ErrorTypeIO, "failed to create export file", err)
	}
	defer f.RemoveIfNotClosed()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return 0, kvErr.New(kvErr.ErrorTypeSerialization, "failed to encode export", err)
	}
	if err := f.Close(); err != nil {
		return 0, kvErr.New(kvErr.ErrorTypeIO, "failed to replace export file", err)
	}
	return len(entries), nil
}
