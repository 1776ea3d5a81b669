// Package widgets loads every widget source into one snapshot for display.
package widgets

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/koileo/sakura/bangumi"
	"github.com/koileo/sakura/codeforces"
	"github.com/koileo/sakura/ctxlog"
	"github.com/koileo/sakura/device"
)

// Snapshot is everything the widget panel shows. Every slice is non-nil;
// Device is nil when the status could not be read.
type Snapshot struct {
	Submissions []codeforces.Submission
	Watching    []bangumi.Collection
	Completed   []bangumi.Collection
	Device      *device.Status
	FetchedAt   time.Time
}

// Sources are the widget backends. Implemented by the clients in bangumi,
// codeforces and device; tests substitute fakes.
type (
	SubmissionSource interface {
		Latest(ctx context.Context) ([]codeforces.Submission, error)
	}
	AnimeSource interface {
		Watching(ctx context.Context) []bangumi.Collection
		Completed(ctx context.Context) []bangumi.Collection
	}
	DeviceSource interface {
		Status(ctx context.Context) (device.Status, error)
	}
)

// Board refreshes the widget snapshot.
type Board struct {
	submissions SubmissionSource
	anime       AnimeSource
	device      DeviceSource
	now         func() time.Time
}

// NewBoard creates a board. Any source may be nil, which leaves its section empty.
func NewBoard(subs SubmissionSource, anime AnimeSource, dev DeviceSource) *Board {
	return &Board{
		submissions: subs,
		anime:       anime,
		device:      dev,
		now:         time.Now,
	}
}

// Refresh loads all sources concurrently. A failing source leaves its
// section empty and is logged; Refresh itself never fails.
func (b *Board) Refresh(ctx context.Context) Snapshot {
	logger := ctxlog.FromContext(ctx)
	snap := Snapshot{
		Submissions: []codeforces.Submission{},
		Watching:    []bangumi.Collection{},
		Completed:   []bangumi.Collection{},
	}

	// Goroutines never return errors so one source cannot cancel another.
	var g errgroup.Group
	if b.submissions != nil {
		g.Go(func() error {
			subs, err := b.submissions.Latest(ctx)
			if err != nil {
				logger.Warn("submissions unavailable", "error", err)
				return nil
			}
			snap.Submissions = subs
			return nil
		})
	}
	if b.anime != nil {
		g.Go(func() error {
			snap.Watching = b.anime.Watching(ctx)
			return nil
		})
		g.Go(func() error {
			snap.Completed = b.anime.Completed(ctx)
			return nil
		})
	}
	if b.device != nil {
		g.Go(func() error {
			st, err := b.device.Status(ctx)
			switch {
			case errors.Is(err, device.ErrDisabled):
			case err != nil:
				logger.Warn("device status unavailable", "error", err)
			default:
				snap.Device = &st
			}
			return nil
		})
	}
	_ = g.Wait()

	if snap.Submissions == nil {
		snap.Submissions = []codeforces.Submission{}
	}
	if snap.Watching == nil {
		snap.Watching = []bangumi.Collection{}
	}
	if snap.Completed == nil {
		snap.Completed = []bangumi.Collection{}
	}
	snap.FetchedAt = b.now()
	logger.Info("widgets refreshed",
		"submissions", len(snap.Submissions),
		"watching", len(snap.Watching),
		"completed", len(snap.Completed),
		"device", snap.Device != nil,
	)
	return snap
}
