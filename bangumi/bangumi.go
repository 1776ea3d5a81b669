// Package bangumi reads a user's anime collections from the Bangumi API.
package bangumi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"resty.dev/v3"

	"github.com/koileo/sakura/collection"
	"github.com/koileo/sakura/config"
	"github.com/koileo/sakura/webclient"
)

// CollectionType is the state of a subject in a user's collection.
type CollectionType int

const (
	Wish    CollectionType = 1
	Done    CollectionType = 2
	Doing   CollectionType = 3
	OnHold  CollectionType = 4
	Dropped CollectionType = 5
)

func (t CollectionType) String() string {
	switch t {
	case Wish:
		return "wish"
	case Done:
		return "done"
	case Doing:
		return "doing"
	case OnHold:
		return "on_hold"
	case Dropped:
		return "dropped"
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// SubjectType filters collections by medium.
type SubjectType int

const Anime SubjectType = 2

// Images holds the cover art URLs of a subject.
type Images struct {
	Large  string `json:"large"`
	Common string `json:"common"`
	Medium string `json:"medium"`
	Small  string `json:"small"`
	Grid   string `json:"grid"`
}

// Subject is the collected work.
type Subject struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	NameCN string  `json:"name_cn"`
	Eps    int     `json:"eps"`
	Score  float64 `json:"score"`
	Images Images  `json:"images"`
}

// Collection is one entry of a user's collection.
type Collection struct {
	SubjectID int            `json:"subject_id"`
	Type      CollectionType `json:"type"`
	Rate      int            `json:"rate"`
	EpStatus  int            `json:"ep_status"`
	UpdatedAt string         `json:"updated_at"`
	Subject   Subject        `json:"subject"`
}

// DisplayName prefers the Chinese title when one is set.
func (c Collection) DisplayName() string {
	if c.Subject.NameCN != "" {
		return c.Subject.NameCN
	}
	return c.Subject.Name
}

// pageBody is the paginated response envelope. Total stays raw so a missing
// or malformed count can be told apart from zero.
type pageBody struct {
	Data   []Collection    `json:"data"`
	Total  json.RawMessage `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// Client talks to the Bangumi API.
type Client struct {
	http     *resty.Client
	username string
	pageSize int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying resty client.
func WithHTTPClient(c *resty.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// NewClient creates a client for the configured user.
func NewClient(cfg config.BangumiConfig, httpCfg config.HTTPConfig, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		username: cfg.Username,
		pageSize: cfg.PageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = webclient.New(httpCfg, cfg.BaseURL, logger)
	}
	if c.pageSize <= 0 {
		c.pageSize = 50
	}
	return c
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.http.Close()
}

// Pages returns a fetcher over the user's anime collection of type ctype.
func (c *Client) Pages(username string, ctype CollectionType) collection.Fetcher[Collection] {
	return func(ctx context.Context, offset, limit int) (collection.Page[Collection], error) {
		var body pageBody
		res, err := c.http.R().
			SetContext(ctx).
			SetPathParam("username", username).
			SetQueryParams(map[string]string{
				"subject_type": strconv.Itoa(int(Anime)),
				"type":         strconv.Itoa(int(ctype)),
				"limit":        strconv.Itoa(limit),
				"offset":       strconv.Itoa(offset),
			}).
			SetForceResponseContentType("application/json").
			SetResult(&body).
			Get("/v0/users/{username}/collections")
		if err != nil {
			return collection.Page[Collection]{}, fmt.Errorf("bangumi %s collections: %w", ctype, err)
		}
		if err := webclient.Check(res); err != nil {
			return collection.Page[Collection]{}, fmt.Errorf("bangumi %s collections: %w", ctype, err)
		}
		return collection.Page[Collection]{Items: body.Data, Total: parseTotal(body.Total)}, nil
	}
}

// Watching returns the anime the user is currently watching.
func (c *Client) Watching(ctx context.Context) []Collection {
	return c.aggregate(ctx, Doing)
}

// Completed returns the anime the user has finished.
func (c *Client) Completed(ctx context.Context) []Collection {
	return c.aggregate(ctx, Done)
}

func (c *Client) aggregate(ctx context.Context, ctype CollectionType) []Collection {
	return collection.Aggregate(ctx, c.Pages(c.username, ctype), c.pageSize)
}

// parseTotal returns nil unless raw is an integral JSON number. Negative
// values pass through and are rejected by the collector.
func parseTotal(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}
