package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
)

// Client is a typed client for the logkv.KV service
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the service at target. Extra options are appended to the
// defaults (plaintext transport, JSON codec).
func Dial(ctx context.Context, target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)

	conn, err := grpc.DialContext(ctx, target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Get returns the value stored under key
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	resp := new(GetResponse)
	if err := c.conn.Invoke(ctx, fullMethod("Get"), &GetRequest{Key: key}, resp); err != nil {
		return nil, fromStatus(err)
	}
	return resp.Value, nil
}

// Set stores value under key
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	err := c.conn.Invoke(ctx, fullMethod("Set"), &SetRequest{Key: key, Value: value}, new(SetResponse))
	return fromStatus(err)
}

// Remove deletes key
func (c *Client) Remove(ctx context.Context, key string) error {
	err := c.conn.Invoke(ctx, fullMethod("Remove"), &RemoveRequest{Key: key}, new(RemoveResponse))
	return fromStatus(err)
}

// Dispatch sends a text command and returns its output
func (c *Client) Dispatch(ctx context.Context, cmd string) ([]byte, error) {
	resp := new(DispatchResponse)
	if err := c.conn.Invoke(ctx, fullMethod("Dispatch"), &DispatchRequest{Command: cmd}, resp); err != nil {
		return nil, fromStatus(err)
	}
	return resp.Value, nil
}

// fromStatus maps gRPC status codes back onto the error taxonomy
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return kvErr.New(kvErr.ErrorTypeIO, "rpc failed", err)
	}

	switch st.Code() {
	case codes.NotFound:
		return kvErr.New(kvErr.ErrorTypeNotFound, st.Message(), err)
	case codes.InvalidArgument:
		return kvErr.New(kvErr.ErrorTypeInvalidInput, st.Message(), err)
	default:
		return kvErr.New(kvErr.ErrorTypeInternal, st.Message(), err)
	}
}
