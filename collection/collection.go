// Package collection materializes remote paginated collections.
//
// A collection is read with one probe request for the first page, which also
// reports the total item count, followed by every remaining page requested
// concurrently. Results keep page order regardless of completion order.
package collection

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/koileo/sakura/ctxlog"
)

// ErrProtocol is returned when the probe response carries no usable total.
var ErrProtocol = errors.New("collection: response has no valid total")

// errNoItems marks a follow-up page whose payload had no item sequence.
var errNoItems = errors.New("page has no item sequence")

// Page is one page of a remote collection.
type Page[T any] struct {
	Items []T
	// Total is the item count across all pages; nil when the response did not
	// carry a numeric total.
	Total *int
}

// Fetcher fetches the page starting at offset. Implementations bind the
// remote query (endpoint, filters) into the closure.
type Fetcher[T any] func(ctx context.Context, offset, limit int) (Page[T], error)

// PageError reports a follow-up page that was dropped.
type PageError struct {
	Offset int
	Err    error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page at offset %d: %v", e.Offset, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// Result is the outcome of Collect.
type Result[T any] struct {
	Items    []T
	Total    int // As reported by the probe
	Requests int
	Failed   []*PageError
}

// Collect fetches every page of the collection. Only a failed or malformed
// probe is an error; failed follow-up pages are reported in Result.Failed and
// their items are absent. No request is retried.
//
// The total reported by the probe is trusted. If the collection changes
// between the probe and the follow-up requests the result may contain
// duplicates or miss items.
func Collect[T any](ctx context.Context, fetch Fetcher[T], pageSize int) (Result[T], error) {
	if pageSize <= 0 {
		return Result[T]{}, fmt.Errorf("collection: page size must be positive, got %d", pageSize)
	}

	res := Result[T]{Requests: 1}
	probe, err := fetch(ctx, 0, pageSize)
	if err != nil {
		return res, fmt.Errorf("probe request: %w", err)
	}
	if probe.Total == nil {
		return res, fmt.Errorf("probe request: %w: missing", ErrProtocol)
	}
	if *probe.Total < 0 {
		return res, fmt.Errorf("probe request: %w: negative total %d", ErrProtocol, *probe.Total)
	}
	res.Total = *probe.Total

	remaining := (res.Total+pageSize-1)/pageSize - 1
	if remaining <= 0 {
		res.Items = append(make([]T, 0, len(probe.Items)), probe.Items...)
		return res, nil
	}

	// Each request owns one slot; Wait is the only synchronization point.
	pages := make([]Page[T], remaining)
	errs := make([]error, remaining)

	var g errgroup.Group
	for i := 0; i < remaining; i++ {
		i := i
		offset := (i + 1) * pageSize
		g.Go(func() error {
			page, err := fetch(ctx, offset, pageSize)
			if err == nil && page.Items == nil {
				err = errNoItems
			}
			pages[i], errs[i] = page, err
			return nil
		})
	}
	_ = g.Wait()
	res.Requests += remaining

	n := len(probe.Items)
	for i := range pages {
		n += len(pages[i].Items)
	}
	items := make([]T, 0, n)
	items = append(items, probe.Items...)
	for i := range pages {
		if errs[i] != nil {
			res.Failed = append(res.Failed, &PageError{Offset: (i + 1) * pageSize, Err: errs[i]})
			continue
		}
		items = append(items, pages[i].Items...)
	}
	res.Items = items

	return res, nil
}

// Aggregate is Collect for best-effort display: a failed probe is logged and
// yields an empty slice, dropped pages are logged and skipped. It never fails.
func Aggregate[T any](ctx context.Context, fetch Fetcher[T], pageSize int) []T {
	logger := ctxlog.FromContext(ctx)

	res, err := Collect(ctx, fetch, pageSize)
	if err != nil {
		logger.Error("collection unavailable", "error", err)
		return []T{}
	}

	for _, pe := range res.Failed {
		logger.Warn("collection page dropped", "offset", pe.Offset, "error", pe.Err)
	}
	logger.Debug("collection loaded",
		"total", res.Total,
		"items", len(res.Items),
		"requests", res.Requests,
		"failed_pages", len(res.Failed),
	)

	return res.Items
}
