package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(WARN, buf)

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	l.Warn("warn %d", 3)
	l.Error("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "[DEBUG]")
	assert.NotContains(t, out, "[INFO]")
	assert.Contains(t, out, "[WARN] warn 3")
	assert.Contains(t, out, "[ERROR] error 4")

	buf.Reset()
	l.SetLevel(DEBUG)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "[DEBUG] now visible")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"", INFO, false},
		{"warning", WARN, false},
		{"error", ERROR, false},
		{"loud", INFO, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(INFO, buf).WithFields(map[string]interface{}{"method": "GET", "component": "api"})

	l.Info("request served")
	assert.Contains(t, buf.String(), "[component=api method=GET] ")
	assert.Contains(t, buf.String(), "[INFO] request served")
}

func TestOpenFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	f, err := OpenFile(dir)
	require.NoError(t, err)
	path := f.Path
	New(INFO, f).Info("first")
	require.NoError(t, f.Close())

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), FilePrefix))
	assert.Equal(t, ".txt", filepath.Ext(path))

	f, err = OpenFile(dir)
	require.NoError(t, err)
	New(INFO, f).Info("second")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] first")
	assert.Contains(t, string(data), "[INFO] second")
}
