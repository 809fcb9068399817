package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/internal/diff"
	"github.com/wonny/livermore/internal/signals"
)

// ErrNoSnapshot is returned by RefreshAlerts when nothing was published yet
var ErrNoSnapshot = errors.New("no snapshot to refresh")

// RefreshAlerts re-fetches the alert feeds and overlays them on the current
// snapshot without fetching prices. Stocks, breadth and changes keep their
// membership; alert, tags, day-trade flag and signal are recomputed.
func (o *Orchestrator) RefreshAlerts(ctx context.Context) (*contracts.Snapshot, error) {
	snap, err := o.store.LoadCurrent()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	now := o.now()
	state := o.alerts.Build(ctx, now)

	OverlayAlerts(snap, state)
	snap.UpdatedAt = now

	if err := o.store.Save(snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	o.logger.WithFields(map[string]interface{}{
		"date":   snap.Date,
		"stocks": len(snap.Stocks),
		"alerts": len(state),
	}).Info("Alerts refreshed")

	return snap, nil
}

// OverlayAlerts replaces the alert of every result in snap with state
func OverlayAlerts(snap *contracts.Snapshot, state contracts.AlertState) {
	lookback := snap.Criteria.LookbackDays
	if lookback == 0 {
		lookback = signals.DefaultParams().LookbackDays
	}

	apply := func(results []contracts.ScanResult) {
		for i := range results {
			overlay(&results[i], state, lookback)
		}
	}
	apply(snap.Stocks)
	apply(snap.Changes.New)
	apply(snap.Changes.Continued)
	apply(snap.Changes.Removed)

	diff.SortResults(snap.Stocks)
}

func overlay(r *contracts.ScanResult, state contracts.AlertState, lookback int) {
	r.Alert = nil
	if rec := state.Get(r.Ticker); rec.Surfaced() {
		r.Alert = rec
	}

	tags := make([]string, 0, len(r.Tags)+1)
	for _, t := range r.Tags {
		if t != signals.TagAlert && t != signals.TagDisposition {
			tags = append(tags, t)
		}
	}
	switch {
	case r.Alert.IsDisposed():
		tags = append(tags, signals.TagDisposition)
		r.CanDayTrade = false
	case r.Alert != nil && r.Alert.Active:
		tags = append(tags, signals.TagAlert)
	}
	r.Tags = tags

	r.Signal = signals.BuildSignal(r, lookback)
}
