package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fieldsync/internal/config"
)

const userAgent = "FieldSync-Go/0.1.0"

// Client talks to the inspection backend: object storage for binaries and
// row endpoints for structured records. All methods return nil only when
// the backend acknowledged the write.
type Client struct {
	baseURL    string
	healthPath string
	token      string
	client     *http.Client
}

// NewClient builds a client from the backend config section.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.Backend.BaseURL,
		healthPath: cfg.Backend.HealthPath,
		token:      cfg.Backend.APIToken,
		client:     &http.Client{Timeout: cfg.Backend.Timeout()},
	}
}

// Health checks the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.healthPath, "", nil)
}

// PutObject stores a binary object under the given storage location.
// Re-sending the same object name overwrites, which keeps retried
// uploads idempotent.
func (c *Client) PutObject(ctx context.Context, location, objectName, contentType string, data []byte) error {
	if location == "" || objectName == "" {
		return fmt.Errorf("put object: location and object name required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	path := fmt.Sprintf("/storage/%s/%s", url.PathEscape(location), url.PathEscape(objectName))
	return c.do(ctx, http.MethodPut, path, contentType, bytes.NewReader(data))
}

// InsertRow creates a row in the given table. The caller supplies a row
// key so replays of the same upload land on the same row.
func (c *Client) InsertRow(ctx context.Context, table, key string, row map[string]any) error {
	return c.writeRow(ctx, http.MethodPost, table, key, row)
}

// UpsertRow creates or replaces a row in the given table by key.
func (c *Client) UpsertRow(ctx context.Context, table, key string, row map[string]any) error {
	return c.writeRow(ctx, http.MethodPut, table, key, row)
}

func (c *Client) writeRow(ctx context.Context, method, table, key string, row map[string]any) error {
	if table == "" || key == "" {
		return fmt.Errorf("write row: table and key required")
	}
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	path := fmt.Sprintf("/tables/%s/rows/%s", url.PathEscape(table), url.PathEscape(key))
	return c.do(ctx, method, path, "application/json", bytes.NewReader(body))
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("backend returned %d for %s %s: %s",
			resp.StatusCode, method, path, strings.TrimSpace(string(excerpt)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
