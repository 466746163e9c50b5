package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
)

// maxBodySize caps how much of a response body is read into memory.
const maxBodySize = 1 << 20

// BaseClient provides common HTTP client functionality
type BaseClient struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a BaseClient.
type Option func(*BaseClient)

// WithRetry routes requests through a retryablehttp client. Only use it for
// idempotent calls: a retried POST may be replayed against the server.
func WithRetry(retryMax int, logger hclog.Logger) Option {
	return func(c *BaseClient) {
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = retryMax
		retryClient.RetryWaitMin = 500 * time.Millisecond
		retryClient.RetryWaitMax = 3 * time.Second
		retryClient.HTTPClient.Timeout = c.httpClient.Timeout
		if logger != nil {
			retryClient.Logger = logger.Named("http")
		} else {
			retryClient.Logger = nil
		}
		c.httpClient = retryClient.StandardClient()
	}
}

// NewBaseClient creates a new base HTTP client
// Parameters:
//   - baseURL: The base URL for API requests (trailing slash will be removed)
//   - timeout: HTTP client timeout duration
func NewBaseClient(baseURL string, timeout time.Duration, opts ...Option) *BaseClient {
	// Normalize baseURL by removing trailing slash for consistency
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &BaseClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// RequestError is returned when the request never produced an HTTP response
// (connection refused, DNS failure, timeout, ...).
type RequestError struct {
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StatusError is returned by DoJSON when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// Do performs an HTTP request with an optional JSON body and returns the raw
// response. A non-2xx status is not an error here; only transport failures are,
// and those come back as *RequestError.
func (c *BaseClient) Do(ctx context.Context, method, path string, reqBody interface{}) (*Response, error) {
	// Ensure path starts with / for proper URL construction
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Method: method, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &RequestError{Method: method, URL: fullURL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// DoJSON performs an HTTP request with JSON request/response bodies
// Parameters:
//   - method: HTTP method (GET, POST, PUT, DELETE, etc.)
//   - path: API path (will be appended to baseURL)
//   - reqBody: Request body (will be JSON marshaled), can be nil for GET requests
//   - respBody: Response body (will be JSON unmarshaled into), can be nil if response not needed
//
// Returns *StatusError if the response status is not 2xx
func (c *BaseClient) DoJSON(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	resp, err := c.Do(ctx, method, path, reqBody)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(resp.Body), 200)}
	}

	if respBody != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, respBody); err != nil {
			return fmt.Errorf("failed to unmarshal response body: %w", err)
		}
	}

	return nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
