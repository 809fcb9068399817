package alerts

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/logger"
)

// LookbackDays is the calendar window fetched from every feed. It must cover
// the 30-day risk window plus long disposition periods.
const LookbackDays = 45

// WarningFeed lists 注意股 notices
type WarningFeed interface {
	FetchWarnings(ctx context.Context, start, end time.Time) ([]contracts.WarningNotice, error)
}

// DispositionFeed lists 處置股 periods
type DispositionFeed interface {
	FetchDispositions(ctx context.Context, start, end time.Time) ([]contracts.DispositionNotice, error)
}

// Segment is one market segment's pair of feeds
type Segment struct {
	Market       contracts.Market
	Warnings     WarningFeed
	Dispositions DispositionFeed
}

// Aggregator fetches every segment's feeds and builds the alert state
// ⭐ SSOT: alert state는 매 실행마다 여기서 완전히 재구성
type Aggregator struct {
	segments []Segment
	logger   *logger.Logger
}

// NewAggregator creates an aggregator over the given segments
func NewAggregator(log *logger.Logger, segments ...Segment) *Aggregator {
	return &Aggregator{
		segments: segments,
		logger:   log.WithModule("alerts"),
	}
}

// Build fetches all feeds concurrently. A failing feed is logged and treated
// as empty; it never cancels the others.
func (a *Aggregator) Build(ctx context.Context, now time.Time) contracts.AlertState {
	end := contracts.Day(now)
	start := end.AddDate(0, 0, -LookbackDays)

	var (
		mu           sync.Mutex
		warnings     []contracts.WarningNotice
		dispositions []contracts.DispositionNotice
	)

	var g errgroup.Group
	for _, seg := range a.segments {
		seg := seg
		if seg.Warnings != nil {
			g.Go(func() error {
				rows, err := seg.Warnings.FetchWarnings(ctx, start, end)
				if err != nil {
					a.feedFailed(seg.Market, "warning", err)
					return nil
				}
				mu.Lock()
				warnings = append(warnings, rows...)
				mu.Unlock()
				return nil
			})
		}
		if seg.Dispositions != nil {
			g.Go(func() error {
				rows, err := seg.Dispositions.FetchDispositions(ctx, start, end)
				if err != nil {
					a.feedFailed(seg.Market, "disposition", err)
					return nil
				}
				mu.Lock()
				dispositions = append(dispositions, rows...)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	state := BuildState(warnings, dispositions, now)

	active := 0
	for _, rec := range state {
		if rec.Active {
			active++
		}
	}
	a.logger.WithFields(map[string]interface{}{
		"warnings":     len(warnings),
		"dispositions": len(dispositions),
		"tickers":      len(state),
		"active":       active,
	}).Info("Alert state built")

	return state
}

func (a *Aggregator) feedFailed(market contracts.Market, feed string, err error) {
	a.logger.WithFields(map[string]interface{}{
		"market": market,
		"feed":   feed,
	}).WithError(err).Warn("Alert feed failed, continuing without it")
}
