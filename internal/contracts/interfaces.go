package contracts

import (
	"context"
	"time"
)

// PriceProvider fetches normalized daily bars for one ticker.
// Fetch never fails: a missing ticker or upstream error yields an empty series.
// ⭐ SSOT: evaluator와 orchestrator는 이 인터페이스만 사용
type PriceProvider interface {
	Name() string
	Fetch(ctx context.Context, ticker string, start, end time.Time) PriceSeries
	// HasCredential reports whether the provider runs with a quota-raising credential
	HasCredential() bool
}

// AlertSource builds the alert state for a run
type AlertSource interface {
	Build(ctx context.Context, now time.Time) AlertState
}

// DayTradeSource builds the day-trade eligibility set for a run
type DayTradeSource interface {
	Build(ctx context.Context, now time.Time) *DayTradeSet
}

// UniverseSource lists the stocks to scan
type UniverseSource interface {
	Load(ctx context.Context) (*Universe, error)
}

// QuotaWaiter is implemented by providers whose upstream enforces a request
// quota. The orchestrator waits on the run context before the per-task
// timeout starts, so queueing for quota never counts as a stalled fetch.
type QuotaWaiter interface {
	WaitQuota(ctx context.Context, ticker string, start, end time.Time) error
}
