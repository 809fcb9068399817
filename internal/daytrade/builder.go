package daytrade

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/pkg/logger"
)

const (
	// DefaultWalkBackDays is how many trailing calendar days the dated list is tried
	DefaultWalkBackDays = 5
	// DefaultMinRows rejects truncated or holiday responses; the real list has ~1,000 rows
	DefaultMinRows = 100
)

// DatedList is a segment list that must be asked for a specific session date
type DatedList interface {
	FetchDayTradeList(ctx context.Context, date time.Time) ([]string, error)
}

// LatestList is a segment list that always describes the latest session
type LatestList interface {
	FetchDayTradeList(ctx context.Context) ([]string, error)
}

// Builder unions both segments' 當沖 lists into one eligibility set
type Builder struct {
	dated        DatedList
	latest       LatestList
	walkBackDays int
	minRows      int
	logger       *logger.Logger
}

// NewBuilder creates a builder; either list may be nil
func NewBuilder(dated DatedList, latest LatestList, log *logger.Logger) *Builder {
	return &Builder{
		dated:        dated,
		latest:       latest,
		walkBackDays: DefaultWalkBackDays,
		minRows:      DefaultMinRows,
		logger:       log.WithModule("daytrade"),
	}
}

// WithWalkBack overrides the walk-back window and sanity threshold
func (b *Builder) WithWalkBack(days, minRows int) *Builder {
	b.walkBackDays = days
	b.minRows = minRows
	return b
}

// Build fetches both segments concurrently. If neither yields anything the
// returned set is skipped, so every ticker counts as eligible.
func (b *Builder) Build(ctx context.Context, now time.Time) *contracts.DayTradeSet {
	var dated, latest []string

	var g errgroup.Group
	if b.dated != nil {
		g.Go(func() error {
			dated = b.walkBack(ctx, contracts.Day(now))
			return nil
		})
	}
	if b.latest != nil {
		g.Go(func() error {
			rows, err := b.latest.FetchDayTradeList(ctx)
			if err != nil {
				b.logger.WithError(err).Warn("Latest day-trade list failed")
				return nil
			}
			latest = rows
			return nil
		})
	}
	_ = g.Wait()

	set := contracts.NewDayTradeSet(append(dated, latest...))
	b.logger.WithFields(map[string]interface{}{
		"dated":  len(dated),
		"latest": len(latest),
		"total":  set.Len(),
		"skip":   set.Skip,
	}).Info("Day-trade eligibility built")

	return set
}

// walkBack walks back from today and returns the most recent plausible list
func (b *Builder) walkBack(ctx context.Context, today time.Time) []string {
	for i := 0; i < b.walkBackDays; i++ {
		date := today.AddDate(0, 0, -i)
		rows, err := b.dated.FetchDayTradeList(ctx, date)
		if err != nil {
			b.logger.WithField("date", date.Format(contracts.DateLayout)).WithError(err).Debug("Dated day-trade list failed")
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		if len(rows) >= b.minRows {
			b.logger.WithFields(map[string]interface{}{
				"date": date.Format(contracts.DateLayout),
				"rows": len(rows),
			}).Debug("Day-trade list found")
			return rows
		}
	}

	b.logger.WithField("days", b.walkBackDays).Warn("No plausible dated day-trade list")
	return nil
}
