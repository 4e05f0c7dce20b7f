package command

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sajjad-MoBe/logkv/internal/shared"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want shared.Operation
	}{
		{"insert", "insert a 1", shared.Insert{Key: "a", Value: []byte("1")}},
		{"set alias", "set a 1", shared.Insert{Key: "a", Value: []byte("1")}},
		{"upper case verb", "SET a 1", shared.Insert{Key: "a", Value: []byte("1")}},
		{"quoted value", `set greeting "hello world"`, shared.Insert{Key: "greeting", Value: []byte("hello world")}},
		{"update", "update a 2", shared.Update{Key: "a", Value: []byte("2")}},
		{"remove", "remove a", shared.Remove{Key: "a"}},
		{"delete alias", "delete a", shared.Remove{Key: "a"}},
		{"read", "read a", shared.Read{Key: "a"}},
		{"get alias", "  get   a  ", shared.Read{Key: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.line))
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		reason string
	}{
		{"empty", "   ", "empty command"},
		{"unknown verb", "frobnicate a", `unknown command "frobnicate"`},
		{"missing value", "insert a", "usage: insert <key> <value>"},
		{"extra value", "remove a b", "usage: remove <key>"},
		{"missing key", "read", "usage: read <key>"},
		{"unterminated quote", `set a "oops`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := Parse(tt.line)
			invalid, ok := op.(shared.Invalid)
			if !assert.True(t, ok, "got %#v", op) {
				return
			}
			assert.Equal(t, tt.line, invalid.Input)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, invalid.Reason)
			} else {
				assert.NotEmpty(t, invalid.Reason)
			}
		})
	}
}
