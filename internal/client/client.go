package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
	"github.com/sajjad-MoBe/logkv/internal/record"
)

// ErrKeyNotFound is wrapped by errors for keys the server does not hold
var ErrKeyNotFound = errors.New("key not found")

// Client talks to a logkv HTTP server
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig RetryConfig
}

// RetryConfig defines retry behavior. Only transport failures are retried;
// any HTTP response, including 5xx, is final.
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
		Timeout:    5 * time.Second,
	}
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://localhost:3000"
func NewClient(baseURL string, retryConfig RetryConfig) *Client {
	if retryConfig.MaxRetries < 1 {
		retryConfig.MaxRetries = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: retryConfig.Timeout,
		},
		retryConfig: retryConfig,
	}
}

// Set stores value under key
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	body, err := json.Marshal(record.Record{Key: key, Value: value})
	if err != nil {
		return kvErr.New(kvErr.ErrorTypeSerialization, "failed to encode record", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/set", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkResponse(resp)
}

// Get returns the value stored under key
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/get/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	value, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, kvErr.New(kvErr.ErrorTypeIO, "failed to read response", err)
	}
	return value, nil
}

// Remove deletes key
func (c *Client) Remove(ctx context.Context, key string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/v1/keys/"+url.PathEscape(key), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkResponse(resp)
}

// Keys lists the live keys
func (c *Client) Keys(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/keys", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	var result struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, kvErr.New(kvErr.ErrorTypeSerialization, "failed to decode response", err)
	}
	return result.Keys, nil
}

// do sends the request, retrying transport failures
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var lastErr error
	for i := 0; i < c.retryConfig.MaxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, kvErr.New(kvErr.ErrorTypeIO, "request cancelled", ctx.Err())
			case <-time.After(c.retryConfig.RetryDelay):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, kvErr.New(kvErr.ErrorTypeInvalidInput, "failed to create request", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, kvErr.New(kvErr.ErrorTypeIO, fmt.Sprintf("%s %s failed", method, path), lastErr)
}

// checkResponse turns an error response into a KVError of the same type
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode == http.StatusNotFound {
		return kvErr.New(kvErr.ErrorTypeNotFound, body.Error.Message, ErrKeyNotFound)
	}

	errType := kvErr.ErrorType(body.Error.Type)
	if errType == "" {
		errType = kvErr.ErrorTypeInternal
	}
	message := body.Error.Message
	if message == "" {
		message = resp.Status
	}
	return kvErr.New(errType, message, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
}
