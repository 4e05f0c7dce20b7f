package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajjad-MoBe/logkv/internal/api"
	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
	"github.com/sajjad-MoBe/logkv/internal/logger"
	"github.com/sajjad-MoBe/logkv/internal/shared"
)

func testRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		RetryDelay: 10 * time.Millisecond,
		Timeout:    time.Second,
	}
}

func setupTest(t *testing.T) *Client {
	h, err := shared.Open(filepath.Join(t.TempDir(), "kvstore.log"))
	require.NoError(t, err)

	tracer, err := api.NewTracer("logkv-test", "")
	require.NoError(t, err)
	server := api.NewServer(h, logger.New(logger.ERROR, io.Discard), api.NewMetrics(), tracer)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		ts.Close()
		h.Close()
	})
	return NewClient(ts.URL, testRetryConfig())
}

func TestClientRoundTrip(t *testing.T) {
	c := setupTest(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "language", []byte("go")))
	require.NoError(t, c.Set(ctx, "bin", []byte{0, 1, 255}))

	value, err := c.Get(ctx, "language")
	require.NoError(t, err)
	assert.Equal(t, []byte("go"), value)

	value, err = c.Get(ctx, "bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 255}, value)

	keys, err := c.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bin", "language"}, keys)

	require.NoError(t, c.Remove(ctx, "language"))
	_, err = c.Get(ctx, "language")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.True(t, kvErr.IsNotFound(err))
}

func TestClientInvalidKey(t *testing.T) {
	c := setupTest(t)

	err := c.Set(context.Background(), "not valid", []byte("v"))
	assert.True(t, kvErr.IsInvalidInput(err))
}

func TestServerErrorsAreNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, testRetryConfig())
	_, err := c.Get(context.Background(), "a")

	assert.True(t, kvErr.IsInternal(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTransportErrorsAreRetried(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	c := NewClient(addr, testRetryConfig())
	start := time.Now()
	_, err := c.Get(context.Background(), "a")

	assert.True(t, kvErr.IsIO(err))
	// two delays between three attempts
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
