package commands

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/livermore/internal/alerts"
	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/internal/daytrade"
	"github.com/wonny/livermore/internal/external/finmind"
	"github.com/wonny/livermore/internal/external/taifex"
	"github.com/wonny/livermore/internal/external/tpex"
	"github.com/wonny/livermore/internal/external/twse"
	"github.com/wonny/livermore/internal/provider"
	"github.com/wonny/livermore/internal/scan"
	"github.com/wonny/livermore/internal/scanconfig"
	"github.com/wonny/livermore/internal/signals"
	"github.com/wonny/livermore/internal/snapshot"
	"github.com/wonny/livermore/internal/universe"
	"github.com/wonny/livermore/pkg/config"
	"github.com/wonny/livermore/pkg/httputil"
	"github.com/wonny/livermore/pkg/logger"
	"github.com/wonny/livermore/pkg/redis"
)

const userAgent = "Mozilla/5.0 (compatible; livermore-scanner)"

// app holds everything a command needs, built once per process
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	rdb          *redis.Client
	criteria     *scanconfig.Config
	store        *snapshot.Store
	universe     *universe.Builder
	orchestrator *scan.Orchestrator
}

// loadBase reads config and builds the logger and snapshot store only
func loadBase() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// newApp wires clients, sources and the orchestrator
func newApp() (*app, error) {
	cfg, log, err := loadBase()
	if err != nil {
		return nil, err
	}

	criteria, err := scanconfig.Load(cfg.Scan.CriteriaPath)
	if err != nil {
		return nil, fmt.Errorf("load criteria: %w", err)
	}
	criteriaBlock, err := criteria.Criteria()
	if err != nil {
		return nil, fmt.Errorf("hash criteria: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache and shared limiter")
		rdb = redis.Disabled()
	}
	limiter := redis.NewRateLimiter(rdb, "livermore")

	// Upstream HTTP clients. TWSE bans bursty clients, so it gets a local
	// per-second limiter plus the shared Redis window.
	twseHTTP := httputil.New(log).
		WithHeader("User-Agent", userAgent).
		WithHeader("Referer", cfg.TWSE.BaseURL+"/").
		WithLimiter(rate.NewLimiter(rate.Limit(cfg.TWSE.RequestsPerSecond), 1)).
		WithRateLimiter(limiter, redis.TWSERateLimit)
	tpexHTTP := httputil.New(log).WithHeader("User-Agent", userAgent).WithRateLimiter(limiter, redis.TPExRateLimit)
	taifexHTTP := httputil.NewWithTimeout(log, 20*time.Second)

	twseClient := twse.NewClient(twseHTTP, cfg.TWSE, log)
	tpexClient := tpex.NewClient(tpexHTTP, cfg.TPEx, log)
	taifexClient := taifex.NewClient(taifexHTTP, cfg.TAIFEX, log)

	finmindLimit := redis.FinMindRateLimit
	if cfg.FinMind.Token == "" {
		finmindLimit.Limit = finmind.AnonymousQuota
	}
	finmindClient := finmind.NewClient(httputil.New(log).WithRateLimiter(limiter, finmindLimit), cfg.FinMind, log)

	priceProvider, err := provider.New(cfg, provider.Clients{TWSE: twseClient, FinMind: finmindClient}, rdb, log)
	if err != nil {
		return nil, fmt.Errorf("build provider: %w", err)
	}

	alertSource := alerts.NewAggregator(log,
		alerts.Segment{Market: contracts.MarketTWSE, Warnings: twseClient, Dispositions: twseClient},
		alerts.Segment{Market: contracts.MarketTPEx, Warnings: tpexClient, Dispositions: tpexClient},
	)
	dayTradeSource := daytrade.NewBuilder(twseClient, tpexClient, log)

	universeBuilder := universe.NewBuilder(taifexClient, log,
		universe.Listing{Market: contracts.MarketTWSE, Feed: twseClient},
		universe.Listing{Market: contracts.MarketTPEx, Feed: tpexClient},
	)
	if rdb.Enabled() {
		universeBuilder.WithCache(redis.NewCache(rdb, "livermore"))
	}

	store := snapshot.NewStore(cfg.Scan.OutputDir, log)

	orchestrator := scan.NewOrchestrator(
		priceProvider,
		alertSource,
		dayTradeSource,
		signals.NewEvaluator(criteria.Params(), log),
		store,
		criteriaBlock,
		scan.Config{
			Workers:       cfg.Scan.Workers,
			TaskDelay:     cfg.Scan.TaskDelay,
			TaskTimeout:   cfg.Scan.TaskTimeout,
			HistoryDays:   cfg.Scan.HistoryDays,
			UniverseLimit: cfg.Scan.UniverseLimit,
		},
		log,
	)

	log.WithFields(map[string]interface{}{
		"provider":   priceProvider.Name(),
		"credential": priceProvider.HasCredential(),
		"redis":      rdb.Enabled(),
		"output":     cfg.Scan.OutputDir,
		"criteria":   criteriaBlock.Hash[:12],
	}).Debug("Application wired")

	return &app{
		cfg:          cfg,
		log:          log,
		rdb:          rdb,
		criteria:     criteria,
		store:        store,
		universe:     universeBuilder,
		orchestrator: orchestrator,
	}, nil
}

// universeSource picks full-market or fixed-list mode
func (a *app) universeSource(fixedList bool, tickers []string) contracts.UniverseSource {
	if len(tickers) > 0 {
		return a.universe.Fixed(tickers)
	}
	if fixedList {
		return a.universe.Fixed(a.criteria.Watchlist.Tickers)
	}
	return a.universe
}

func (a *app) close() {
	if err := a.rdb.Close(); err != nil {
		a.log.WithError(err).Warn("Redis close failed")
	}
}
