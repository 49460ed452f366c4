// Package stagedisplay pushes new song requests to a ProPresenter stage
// display through its REST API.
package stagedisplay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/yourusername/song-request-board/internal/models"
)

var ErrDisabled = errors.New("ProPresenter integration is not enabled")

// Client handles communication with the ProPresenter API
type Client struct {
	baseURL    string
	httpClient *http.Client
	enabled    bool
	connected  atomic.Bool
}

// Config holds ProPresenter configuration
type Config struct {
	Host    string // e.g., "localhost" or "192.168.1.100"
	Port    string // e.g., "4031"
	Enabled bool
}

// Status is the connection summary reported by the status endpoint.
type Status struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

// New creates a new ProPresenter client. A nil or disabled config yields a
// client whose calls return ErrDisabled.
func New(config *Config) *Client {
	if config == nil || !config.Enabled {
		return &Client{enabled: false}
	}

	return &Client{
		baseURL: fmt.Sprintf("http://%s:%s", config.Host, config.Port),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		enabled: true,
	}
}

// IsEnabled returns whether ProPresenter integration is enabled
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// IsConnected reports the result of the most recent call.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Health checks if ProPresenter is reachable
func (c *Client) Health(ctx context.Context) error {
	if !c.enabled {
		return ErrDisabled
	}
	return c.do(ctx, http.MethodGet, "/v1/status", nil)
}

// ShowMessage displays text as the stage message.
func (c *Client) ShowMessage(ctx context.Context, text string) error {
	if !c.enabled {
		return ErrDisabled
	}
	body, err := json.Marshal(text)
	if err != nil {
		return fmt.Errorf("failed to encode stage message: %w", err)
	}
	return c.do(ctx, http.MethodPut, "/v1/stage/message", body)
}

// ClearMessage hides the stage message.
func (c *Client) ClearMessage(ctx context.Context) error {
	if !c.enabled {
		return ErrDisabled
	}
	return c.do(ctx, http.MethodDelete, "/v1/stage/message", nil)
}

// Status checks the connection and summarises it for the status endpoint.
func (c *Client) Status(ctx context.Context) Status {
	if !c.enabled {
		return Status{Message: "ProPresenter integration is not configured"}
	}
	if err := c.Health(ctx); err != nil {
		return Status{Enabled: true, Message: err.Error()}
	}
	return Status{Enabled: true, Connected: true, Message: "ProPresenter is connected"}
}

// OnSubmitted shows each new song request on the stage display. It is a
// no-op when the integration is disabled.
func (c *Client) OnSubmitted(ctx context.Context, req models.SongRequest) error {
	if !c.enabled {
		return nil
	}
	return c.ShowMessage(ctx, FormatMessage(req))
}

// FormatMessage renders a song request for the stage screen.
func FormatMessage(req models.SongRequest) string {
	return fmt.Sprintf("%s requested %s", req.Name, req.SongArtist)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.connected.Store(false)
		return fmt.Errorf("ProPresenter not reachable: %w", err)
	}
	defer resp.Body.Close()
	c.connected.Store(true)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	return nil
}
