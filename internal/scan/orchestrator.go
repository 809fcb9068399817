// Package scan runs the breakout scan over a universe and publishes the
// resulting snapshot.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/internal/diff"
	"github.com/wonny/livermore/internal/signals"
	"github.com/wonny/livermore/internal/snapshot"
	"github.com/wonny/livermore/internal/universe"
	"github.com/wonny/livermore/pkg/logger"
)

// Config holds orchestrator tuning
type Config struct {
	Workers       int
	TaskDelay     time.Duration // pause after each ticker, per worker
	TaskTimeout   time.Duration
	HistoryDays   int // calendar days of history requested per ticker
	UniverseLimit int // applied when the provider has no credential
}

// Orchestrator drives one scan run
// ⭐ SSOT: 掃描流程 (alerts → eligibility → workers → diff → store)
type Orchestrator struct {
	provider  contracts.PriceProvider
	alerts    contracts.AlertSource
	dayTrade  contracts.DayTradeSource
	evaluator *signals.Evaluator
	store     *snapshot.Store
	criteria  contracts.Criteria
	cfg       Config
	logger    *logger.Logger
	now       func() time.Time
}

// NewOrchestrator creates a new scan orchestrator
func NewOrchestrator(
	provider contracts.PriceProvider,
	alerts contracts.AlertSource,
	dayTrade contracts.DayTradeSource,
	evaluator *signals.Evaluator,
	store *snapshot.Store,
	criteria contracts.Criteria,
	cfg Config,
	log *logger.Logger,
) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Orchestrator{
		provider:  provider,
		alerts:    alerts,
		dayTrade:  dayTrade,
		evaluator: evaluator,
		store:     store,
		criteria:  criteria,
		cfg:       cfg,
		logger:    log.WithModule("scan"),
		now:       time.Now,
	}
}

// taskResult is what a worker reports for one ticker
type taskResult struct {
	ticker    string
	result    *contracts.ScanResult
	changePct *float64
}

// runContext is shared read-only by every worker of a run
type runContext struct {
	alerts   contracts.AlertState
	dayTrade *contracts.DayTradeSet
	start    time.Time
	end      time.Time
}

// Run scans u and persists the snapshot. Ticker failures only drop that
// ticker; the snapshot is always written.
func (o *Orchestrator) Run(ctx context.Context, u *contracts.Universe) (*contracts.Snapshot, error) {
	startedAt := time.Now()
	now := o.now()
	today := contracts.Day(now).Format(contracts.DateLayout)

	prev, err := o.store.LoadCurrent()
	if err != nil {
		o.logger.WithError(err).Warn("Previous snapshot unreadable, diffing against nothing")
		prev = nil
	}

	if !o.provider.HasCredential() && u.Count() > o.cfg.UniverseLimit && o.cfg.UniverseLimit > 0 {
		o.logger.WithFields(map[string]interface{}{
			"universe": u.Count(),
			"limit":    o.cfg.UniverseLimit,
			"provider": o.provider.Name(),
		}).Warn("No provider credential, truncating universe by market cap rank")
		u = universe.Truncate(u, o.cfg.UniverseLimit)
	}

	rc := o.prepare(ctx, now)

	o.logger.WithFields(map[string]interface{}{
		"date":      today,
		"stocks":    u.Count(),
		"workers":   o.cfg.Workers,
		"provider":  o.provider.Name(),
		"alerts":    len(rc.alerts),
		"day_trade": rc.dayTrade.Len(),
	}).Info("Starting scan")

	results, stats := o.scan(ctx, u, rc)
	diff.SortResults(results)

	snap := &contracts.Snapshot{
		Date:        today,
		UpdatedAt:   now,
		RunID:       uuid.NewString(),
		ScanType:    contracts.ScanTypeBreakout,
		Provider:    o.provider.Name(),
		Criteria:    o.criteria,
		Stocks:      results,
		MarketStats: stats,
		Changes:     diff.Diff(prev, results, today),
	}
	snap.Summarize()

	if err := o.store.Save(snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	o.logger.WithFields(map[string]interface{}{
		"passed":    len(results),
		"scanned":   stats.TotalScanned,
		"new":       len(snap.Changes.New),
		"continued": len(snap.Changes.Continued),
		"removed":   len(snap.Changes.Removed),
		"duration":  time.Since(startedAt).String(),
	}).Info("Scan completed")

	return snap, nil
}

// prepare builds the alert state and day-trade set concurrently. Both
// sources degrade internally and never fail the run.
func (o *Orchestrator) prepare(ctx context.Context, now time.Time) runContext {
	rc := runContext{
		end:   now,
		start: now.AddDate(0, 0, -o.cfg.HistoryDays),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rc.alerts = o.alerts.Build(gctx, now)
		return nil
	})
	g.Go(func() error {
		rc.dayTrade = o.dayTrade.Build(gctx, now)
		return nil
	})
	_ = g.Wait()

	if rc.alerts == nil {
		rc.alerts = contracts.AlertState{}
	}
	if rc.dayTrade == nil {
		rc.dayTrade = contracts.NewDayTradeSet(nil)
	}
	return rc
}

// scan runs the worker pool and merges results on a single goroutine
func (o *Orchestrator) scan(ctx context.Context, u *contracts.Universe, rc runContext) ([]contracts.ScanResult, contracts.MarketStats) {
	taskCh := make(chan contracts.Stock)
	resultCh := make(chan taskResult, o.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			o.worker(ctx, workerID, rc, taskCh, resultCh)
		}(i)
	}

	go func() {
		defer close(taskCh)
		for _, s := range u.Stocks {
			select {
			case taskCh <- s:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]contracts.ScanResult, 0)
	var stats contracts.MarketStats
	done := 0
	for tr := range resultCh {
		done++
		if tr.changePct != nil {
			stats.Record(*tr.changePct)
		}
		if tr.result != nil {
			results = append(results, *tr.result)
			o.logger.WithFields(map[string]interface{}{
				"ticker":   tr.ticker,
				"priority": tr.result.Signal.Priority,
			}).Info("Breakout found")
		}
		if done%100 == 0 {
			o.logger.WithFields(map[string]interface{}{
				"done":  done,
				"total": u.Count(),
			}).Info("Scan progress")
		}
	}

	return results, stats
}

// worker evaluates stocks until the task channel closes
func (o *Orchestrator) worker(ctx context.Context, workerID int, rc runContext, taskCh <-chan contracts.Stock, resultCh chan<- taskResult) {
	for stock := range taskCh {
		resultCh <- o.evaluate(ctx, workerID, rc, stock)

		if o.cfg.TaskDelay > 0 {
			select {
			case <-time.After(o.cfg.TaskDelay):
			case <-ctx.Done():
			}
		}
	}
}

func (o *Orchestrator) evaluate(ctx context.Context, workerID int, rc runContext, stock contracts.Stock) taskResult {
	out := taskResult{ticker: stock.Ticker}
	if ctx.Err() != nil {
		return out
	}

	// quota queueing happens on the run context, outside the task timeout
	if qw, ok := o.provider.(contracts.QuotaWaiter); ok {
		if err := qw.WaitQuota(ctx, stock.Ticker, rc.start, rc.end); err != nil {
			return out
		}
	}

	taskCtx := ctx
	if o.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, o.cfg.TaskTimeout)
		defer cancel()
	}

	series := o.provider.Fetch(taskCtx, stock.Ticker, rc.start, rc.end)
	if err := taskCtx.Err(); err != nil {
		fields := map[string]interface{}{"worker": workerID, "ticker": stock.Ticker}
		if errors.Is(err, context.DeadlineExceeded) {
			o.logger.WithFields(fields).Warn("Ticker fetch timed out, skipping")
		}
		return out
	}
	if len(series) == 0 {
		o.logger.WithFields(map[string]interface{}{
			"worker": workerID,
			"ticker": stock.Ticker,
		}).Debug("No price data")
		return out
	}

	out.result, out.changePct = o.evaluator.Evaluate(stock, series, rc.alerts, rc.dayTrade)
	return out
}
