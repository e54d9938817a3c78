package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is a non-2xx answer of the remote API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type response struct {
	status  int
	payload any
	raw     []byte
	// decodeErr is set when the body is not empty and not JSON
	decodeErr error
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	out := &response{status: resp.StatusCode, raw: raw}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out.payload); err != nil {
		out.decodeErr = fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any) (*response, error) {
	if in == nil {
		return c.do(ctx, method, path, nil, "")
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(in); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, method, path, &buf, "application/json")
}

// apiError builds the error for a failed response, preferring the first
// non-empty message field found in the body.
func (r *response) apiError(fallback string, fields ...string) *APIError {
	if len(fields) == 0 {
		fields = []string{"message"}
	}
	if obj, ok := r.payload.(map[string]any); ok {
		for _, f := range fields {
			if msg := asString(obj[f]); msg != "" {
				return &APIError{Status: r.status, Message: msg}
			}
		}
	}
	return &APIError{Status: r.status, Message: fallback}
}
