package device

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koileo/sakura/config"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(config.DeviceConfig{Endpoint: srv.URL + "/status"}, config.HTTPConfig{Timeout: 5 * time.Second}, nil)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestStatus(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"device":"pixel","online":true,"battery":73,"charging":false,`+
			`"app":"Codeforces","updated_at":"2026-10-18T08:30:00Z"}`)
	})

	st, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Status{
		Device:    "pixel",
		Online:    true,
		Battery:   73,
		App:       "Codeforces",
		UpdatedAt: time.Date(2026, 10, 18, 8, 30, 0, 0, time.UTC),
	}, st)
}

func TestStatusErrorResponse(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})

	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")
}

func TestStatusDisabled(t *testing.T) {
	c := NewClient(config.DeviceConfig{}, config.HTTPConfig{}, nil)
	assert.False(t, c.Enabled())

	_, err := c.Status(context.Background())
	assert.True(t, errors.Is(err, ErrDisabled))
}

func TestStale(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	st := Status{UpdatedAt: now.Add(-15 * time.Minute)}

	assert.True(t, st.Stale(now, 10*time.Minute))
	assert.False(t, st.Stale(now, 20*time.Minute))
	assert.False(t, st.Stale(now, 0))
}
