// Package codeforces fetches a user's recent submissions from the Codeforces API.
package codeforces

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/koileo/sakura/config"
	"github.com/koileo/sakura/webclient"
)

// Verdict is the judge outcome of a submission.
type Verdict string

const (
	Accepted          Verdict = "OK"
	WrongAnswer       Verdict = "WRONG_ANSWER"
	TimeLimitExceeded Verdict = "TIME_LIMIT_EXCEEDED"
	Testing           Verdict = "TESTING"
)

// Tone groups verdicts for display.
type Tone int

const (
	ToneNeutral Tone = iota
	ToneAccepted
	ToneRejected
	ToneSlow
)

// Label is the verdict as shown on the page. Only the first underscore is
// replaced, so WRONG_ANSWER reads "WRONG ANSWER" and TIME_LIMIT_EXCEEDED
// reads "TIME LIMIT_EXCEEDED".
func (v Verdict) Label() string {
	if v == "" {
		return "IN QUEUE"
	}
	return strings.Replace(string(v), "_", " ", 1)
}

// Tone returns the display group of the verdict.
func (v Verdict) Tone() Tone {
	switch v {
	case Accepted:
		return ToneAccepted
	case WrongAnswer:
		return ToneRejected
	case TimeLimitExceeded:
		return ToneSlow
	}
	return ToneNeutral
}

// Problem identifies a problem within a contest.
type Problem struct {
	ContestID int    `json:"contestId"`
	Index     string `json:"index"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
}

// Code is the short problem code such as "1850A".
func (p Problem) Code() string {
	if p.ContestID == 0 {
		return p.Index
	}
	return strconv.Itoa(p.ContestID) + p.Index
}

// Submission is one entry of user.status.
type Submission struct {
	ID                  int64   `json:"id"`
	ContestID           int     `json:"contestId"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Problem             Problem `json:"problem"`
	ProgrammingLanguage string  `json:"programmingLanguage"`
	Verdict             Verdict `json:"verdict"`
}

// Created returns the submission time.
func (s Submission) Created() time.Time {
	return time.Unix(s.CreationTimeSeconds, 0)
}

// APIError is a response whose status is not "OK".
type APIError struct {
	Status  string
	Comment string
}

func (e *APIError) Error() string {
	if e.Comment == "" {
		return "codeforces: status " + e.Status
	}
	return "codeforces: " + e.Comment
}

type envelope struct {
	Status  string       `json:"status"`
	Comment string       `json:"comment"`
	Result  []Submission `json:"result"`
}

// Client talks to the Codeforces API.
type Client struct {
	http   *resty.Client
	handle string
	count  int
}

// NewClient creates a client for the configured handle.
func NewClient(cfg config.CodeforcesConfig, httpCfg config.HTTPConfig, logger *slog.Logger) *Client {
	count := cfg.Count
	if count <= 0 {
		count = 10
	}
	return &Client{
		http:   webclient.New(httpCfg, cfg.BaseURL, logger),
		handle: cfg.Handle,
		count:  count,
	}
}

// Handle returns the configured handle.
func (c *Client) Handle() string { return c.handle }

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.http.Close()
}

// Latest returns the configured number of recent submissions of the
// configured handle.
func (c *Client) Latest(ctx context.Context) ([]Submission, error) {
	return c.Recent(ctx, c.handle, c.count)
}

// Recent returns at most n of the handle's most recent submissions, newest first.
func (c *Client) Recent(ctx context.Context, handle string, n int) ([]Submission, error) {
	if n <= 0 {
		return []Submission{}, nil
	}

	var ok, failed envelope
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"handle": handle,
			"from":   "1",
			"count":  strconv.Itoa(n),
		}).
		SetForceResponseContentType("application/json").
		SetResult(&ok).
		SetError(&failed).
		Get("/user.status")
	if err != nil {
		return nil, fmt.Errorf("codeforces user.status: %w", err)
	}

	body := ok
	if res.IsError() {
		body = failed
	}
	if body.Status != "" && body.Status != "OK" {
		return nil, &APIError{Status: body.Status, Comment: body.Comment}
	}
	if err := webclient.Check(res); err != nil {
		return nil, fmt.Errorf("codeforces user.status: %w", err)
	}
	if body.Status == "" {
		return nil, &APIError{Comment: "response has no status"}
	}

	subs := body.Result
	if subs == nil {
		subs = []Submission{}
	}
	if len(subs) > n {
		subs = subs[:n]
	}
	return subs, nil
}
