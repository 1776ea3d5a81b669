// Package device reads the owner's device status from a small JSON endpoint.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"resty.dev/v3"

	"github.com/koileo/sakura/config"
	"github.com/koileo/sakura/webclient"
)

// ErrDisabled is returned when no endpoint is configured.
var ErrDisabled = errors.New("device: no endpoint configured")

// Status is the last reported state of the device.
type Status struct {
	Device    string    `json:"device"`
	Online    bool      `json:"online"`
	Battery   int       `json:"battery"` // Percent
	Charging  bool      `json:"charging"`
	App       string    `json:"app"` // Foreground application
	UpdatedAt time.Time `json:"updated_at"`
}

// Stale reports whether the reading is older than maxAge at now.
// A zero maxAge never goes stale.
func (s Status) Stale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(s.UpdatedAt) > maxAge
}

// Client polls the status endpoint.
type Client struct {
	http     *resty.Client
	endpoint string
}

// NewClient creates a client for cfg.Endpoint.
func NewClient(cfg config.DeviceConfig, httpCfg config.HTTPConfig, logger *slog.Logger) *Client {
	return &Client{
		http:     webclient.New(httpCfg, "", logger),
		endpoint: cfg.Endpoint,
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool { return c.endpoint != "" }

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.http.Close()
}

// Status fetches the current status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	if !c.Enabled() {
		return Status{}, ErrDisabled
	}

	var st Status
	res, err := c.http.R().
		SetContext(ctx).
		SetForceResponseContentType("application/json").
		SetResult(&st).
		Get(c.endpoint)
	if err != nil {
		return Status{}, fmt.Errorf("device status: %w", err)
	}
	if err := webclient.Check(res); err != nil {
		return Status{}, fmt.Errorf("device status: %w", err)
	}
	return st, nil
}
