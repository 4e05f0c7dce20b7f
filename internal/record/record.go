package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
)

// Kind is the operation a log line records.
type Kind int

const (
	KindWrite Kind = iota + 1
	KindRemove
)

func (k Kind) String() string {
	switch k {
	case KindWrite:
		return "write"
	case KindRemove:
		return "remove"
	default:
		return "unknown"
	}
}

/*
Every log line starts with a tag header and ends with '\n':

	[write]:{"key":"a","value":[49]}\n
	[remove]:a\n

"[write]:" is the only write tag ever produced. "[read]:" and "[update]:" are
still accepted when reading older logs. Payload offsets are always computed
from the length of the header that was actually parsed.
*/
const (
	WriteHeader  = "[write]:"
	RemoveHeader = "[remove]:"

	legacyReadHeader   = "[read]:"
	legacyUpdateHeader = "[update]:"

	// WriteHeaderLen is the byte length of WriteHeader and the amount added to
	// a write line's start offset to reach its payload.
	WriteHeaderLen = len(WriteHeader) // 8
)

// headers lists every recognized tag with the kind it denotes.
var headers = []struct {
	tag  string
	kind Kind
}{
	{WriteHeader, KindWrite},
	{RemoveHeader, KindRemove},
	{legacyReadHeader, KindWrite},
	{legacyUpdateHeader, KindWrite},
}

// Header is the parsed tag at the start of a log line.
type Header struct {
	Kind Kind
	Tag  string
}

// Len returns the exact number of bytes the header occupies on disk.
func (h Header) Len() int {
	return len(h.Tag)
}

// Record is the key/value pair embedded in a write line.
type Record struct {
	Key   string `json:"key"`
	Value Bytes  `json:"value"`
}

// Bytes is a byte slice serialized as a JSON array of numbers, e.g. [104,105].
type Bytes []byte

// MarshalJSON implements json.Marshaler
func (b Bytes) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('[')
	for i, c := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, "%d", c)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts an array of numbers in 0..255, or a JSON string whose
// UTF-8 bytes become the value.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = Bytes(s)
		return nil
	}

	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return err
	}
	out := make(Bytes, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return fmt.Errorf("byte value %d out of range at index %d", n, i)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}

// EncodeWrite produces a newline-terminated write line for key and value.
func EncodeWrite(key string, value []byte) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(Record{Key: key, Value: value})
	if err != nil {
		return nil, kvErr.New(kvErr.ErrorTypeSerialization, "failed to encode record", err)
	}

	line := make([]byte, 0, WriteHeaderLen+len(payload)+1)
	line = append(line, WriteHeader...)
	line = append(line, payload...)
	line = append(line, '\n')
	return line, nil
}

// EncodeRemove produces a newline-terminated remove line carrying the bare key.
func EncodeRemove(key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return []byte(RemoveHeader + key + "\n"), nil
}

// checkKey rejects keys that would not survive the log unchanged. Remove lines
// carry the raw key, so a line break would split the record, and JSON
// replaces invalid UTF-8 with U+FFFD.
func checkKey(key string) error {
	if strings.ContainsAny(key, "\r\n") {
		return kvErr.New(kvErr.ErrorTypeSerialization, "key contains a line break", nil)
	}
	if !utf8.ValidString(key) {
		return kvErr.New(kvErr.ErrorTypeSerialization, "key is not valid UTF-8", nil)
	}
	return nil
}

// ParseHeader recognizes the tag at the start of line.
func ParseHeader(line []byte) (Header, error) {
	for _, h := range headers {
		if bytes.HasPrefix(line, []byte(h.tag)) {
			return Header{Kind: h.kind, Tag: h.tag}, nil
		}
	}
	return Header{}, kvErr.New(kvErr.ErrorTypeInvalidFileHeader, "unrecognized record header", nil)
}

// Classify reports whether line is a write or a remove record.
func Classify(line []byte) (Kind, error) {
	h, err := ParseHeader(line)
	if err != nil {
		return 0, err
	}
	return h.Kind, nil
}

// DecodeWrite decodes a full write line, header included.
func DecodeWrite(line []byte) (Record, error) {
	h, err := ParseHeader(line)
	if err != nil {
		return Record{}, err
	}
	if h.Kind != KindWrite {
		return Record{}, kvErr.New(kvErr.ErrorTypeInvalidFileHeader, "not a write record", nil)
	}
	return DecodePayload(line[h.Len():])
}

// DecodePayload decodes the JSON payload of a write line, i.e. the bytes that
// start at an index offset.
func DecodePayload(payload []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(bytes.TrimRight(payload, "\r\n"), &rec); err != nil {
		return Record{}, kvErr.New(kvErr.ErrorTypeSerialization, "failed to decode record", err)
	}
	return rec, nil
}

// DecodeRemove returns the key carried by a remove line.
func DecodeRemove(line []byte) (string, error) {
	h, err := ParseHeader(line)
	if err != nil {
		return "", err
	}
	if h.Kind != KindRemove {
		return "", kvErr.New(kvErr.ErrorTypeInvalidFileHeader, "not a remove record", nil)
	}
	return string(bytes.TrimRight(line[h.Len():], "\r\n")), nil
}
