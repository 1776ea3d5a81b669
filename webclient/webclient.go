// Package webclient builds the resty clients shared by the widget sources.
package webclient

import (
	"fmt"
	"log/slog"
	"strings"

	"resty.dev/v3"

	"github.com/koileo/sakura/config"
)

// New returns a client rooted at baseURL with the shared timeout and
// User-Agent applied. Resty diagnostics are routed to logger.
func New(cfg config.HTTPConfig, baseURL string, logger *slog.Logger) *resty.Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetLogger(slogAdapter{logger.With("component", "http")})
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	if cfg.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.UserAgent)
	}
	c.SetHeader("Accept", "application/json")
	return c
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// Check converts a completed response into an error when its status is not 2xx.
func Check(res *resty.Response) error {
	if res.IsSuccess() {
		return nil
	}
	return &StatusError{Code: res.StatusCode(), Status: res.Status()}
}

// slogAdapter satisfies resty.Logger.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Errorf(format string, v ...any) { a.l.Error(fmt.Sprintf(format, v...)) }
func (a slogAdapter) Warnf(format string, v ...any)  { a.l.Warn(fmt.Sprintf(format, v...)) }
func (a slogAdapter) Debugf(format string, v ...any) { a.l.Debug(fmt.Sprintf(format, v...)) }
