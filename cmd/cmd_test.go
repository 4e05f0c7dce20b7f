package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajjad-MoBe/logkv/internal/api"
	"github.com/sajjad-MoBe/logkv/internal/export"
	"github.com/sajjad-MoBe/logkv/internal/logger"
	"github.com/sajjad-MoBe/logkv/internal/shared"
)

func execute(t *testing.T, args ...string) (string, error) {
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestServeConfigFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "logkv.toml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
log_file = "from-file.log"
http_address = ":4000"
sync_writes = false
`), 0644))

	configPath = cfgFile
	require.NoError(t, serveCmd.Flags().Set("log-file", "from-flag.log"))
	t.Cleanup(func() {
		configPath = ""
		serveCmd.Flags().Set("log-file", "kvstore.log")
		serveCmd.Flags().Lookup("log-file").Changed = false
	})

	cfg, err := loadServeConfig(serveCmd)
	require.NoError(t, err)

	assert.Equal(t, "from-flag.log", cfg.LogFile)
	assert.Equal(t, ":4000", cfg.HTTPAddress)
	assert.False(t, cfg.SyncWrites)
}

func TestClientCommands(t *testing.T) {
	h, err := shared.Open(filepath.Join(t.TempDir(), "kvstore.log"))
	require.NoError(t, err)
	defer h.Close()

	tracer, err := api.NewTracer("logkv-test", "")
	require.NoError(t, err)
	ts := httptest.NewServer(api.NewServer(h, logger.New(logger.ERROR, io.Discard), api.NewMetrics(), tracer).Handler())
	defer ts.Close()

	out, err := execute(t, "set", "tea", "green", "--server", ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	out, err = execute(t, "get", "tea", "--server", ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "green\n", out)

	out, err = execute(t, "keys", "--server", ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "tea\n", out)

	out, err = execute(t, "remove", "tea", "--server", ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	_, err = execute(t, "get", "tea", "--server", ts.URL)
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "kvstore.log")
	outPath := filepath.Join(dir, "out.json")

	h, err := shared.Open(logPath)
	require.NoError(t, err)
	require.NoError(t, h.Set("b", []byte("2")))
	require.NoError(t, h.Set("a", []byte("1")))
	require.NoError(t, h.Close())

	out, err := execute(t, "export", "--log-file", logPath, "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 keys")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var entries []export.Entry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "b", entries[1].Key)
}

func TestExportRefusesLockedLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "kvstore.log")
	h, err := shared.Open(logPath)
	require.NoError(t, err)
	defer h.Close()

	_, err = execute(t, "export", "--log-file", logPath, "--out", filepath.Join(t.TempDir(), "x.json"))
	assert.Error(t, err)
}
