package models

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/thecloudstation/claude-launcher/pkg/httpclient"
)

const (
	// DefaultBaseURL hosts the public catalog.
	DefaultBaseURL = "https://openrouter.ai"

	listPath       = "/api/v1/models"
	requestTimeout = 30 * time.Second
	retryMax       = 3
)

type listResponse struct {
	Data []Model `json:"data"`
}

// Client reads the public OpenRouter model catalog. No credentials are sent.
type Client struct {
	http   *httpclient.BaseClient
	logger hclog.Logger
}

// NewClient creates a catalog client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, logger hclog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		http:   httpclient.NewBaseClient(baseURL, requestTimeout, httpclient.WithRetry(retryMax, logger)),
		logger: logger,
	}
}

// List fetches the whole catalog. A non-2xx answer is reported by status code
// alone.
func (c *Client) List(ctx context.Context) ([]Model, error) {
	var out listResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, listPath, nil, &out); err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			return nil, fmt.Errorf("failed to fetch models: %d", statusErr.StatusCode)
		}
		return nil, fmt.Errorf("failed to fetch models: %w", err)
	}
	c.logger.Debug("fetched model catalog", "count", len(out.Data))
	return out.Data, nil
}
