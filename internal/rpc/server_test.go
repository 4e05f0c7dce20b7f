package rpc

import (
	"context"
	"errors"
	"io"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
	"github.com/sajjad-MoBe/logkv/internal/logger"
	"github.com/sajjad-MoBe/logkv/internal/shared"
)

const bufSize = 1024 * 1024

func setupTest(t *testing.T) (*Client, *shared.Handle) {
	h, err := shared.Open(filepath.Join(t.TempDir(), "kvstore.log"))
	require.NoError(t, err)

	lis := bufconn.Listen(bufSize)
	srv := NewGRPCServer(h, logger.New(logger.ERROR, io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- Serve(ctx, srv, lis, logger.New(logger.ERROR, io.Discard))
	}()

	client, err := Dial(context.Background(), "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		cancel()
		assert.NoError(t, <-errCh)
		h.Close()
	})
	return client, h
}

func TestGetSetRemove(t *testing.T) {
	client, h := setupTest(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "language", []byte("go")))

	value, err := client.Get(ctx, "language")
	require.NoError(t, err)
	assert.Equal(t, []byte("go"), value)

	// the write went through the shared store
	value, err = h.Get("language")
	require.NoError(t, err)
	assert.Equal(t, []byte("go"), value)

	require.NoError(t, client.Remove(ctx, "language"))
	require.NoError(t, client.Remove(ctx, "language"))

	_, err = client.Get(ctx, "language")
	assert.True(t, kvErr.IsNotFound(err))
	var kv *kvErr.KVError
	require.True(t, errors.As(err, &kv))
	assert.Equal(t, codes.NotFound, status.Code(kv.Err))
}

func TestKeyValidation(t *testing.T) {
	client, h := setupTest(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"empty get", func() error { _, err := client.Get(ctx, ""); return err }},
		{"dashed set", func() error { return client.Set(ctx, "a-b", []byte("1")) }},
		{"spaced remove", func() error { return client.Remove(ctx, "a b") }},
		{"dispatch set", func() error { _, err := client.Dispatch(ctx, `set "a b" 1`); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.True(t, kvErr.IsInvalidInput(err), "got %v", err)
		})
	}
	assert.Equal(t, 0, h.Len())
}

func TestDispatch(t *testing.T) {
	client, _ := setupTest(t)
	ctx := context.Background()

	out, err := client.Dispatch(ctx, "insert tea green")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = client.Dispatch(ctx, "read tea")
	require.NoError(t, err)
	assert.Equal(t, []byte("green"), out)

	_, err = client.Dispatch(ctx, "brew tea")
	assert.True(t, kvErr.IsInvalidInput(err))
}

func TestUnaryErrorInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: fullMethod("Get")}

	_, err := UnaryErrorInterceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))

	_, err = UnaryErrorInterceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, kvErr.New(kvErr.ErrorTypeIO, "disk failure", nil)
	})
	assert.Equal(t, codes.Internal, status.Code(err))

	_, err = UnaryErrorInterceptor(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, kvErr.New(kvErr.ErrorTypeNotFound, "missing", nil)
	})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestCancelledContext(t *testing.T) {
	srv := NewServer(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := srv.Get(ctx, &GetRequest{Key: "a"})
	assert.Equal(t, codes.Canceled, status.Code(err))
}
