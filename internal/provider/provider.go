package provider

import (
	"fmt"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/internal/external/finmind"
	"github.com/wonny/livermore/internal/external/twse"
	"github.com/wonny/livermore/pkg/config"
	"github.com/wonny/livermore/pkg/logger"
	"github.com/wonny/livermore/pkg/redis"
)

// Clients are the upstream clients a provider can be built from
type Clients struct {
	TWSE    *twse.Client
	FinMind *finmind.Client
}

// New selects the configured provider once at startup and wraps it with the
// Redis series cache. The result is passed explicitly to the orchestrator.
// ⭐ SSOT: provider 선택은 여기서만
func New(cfg *config.Config, clients Clients, rdb *redis.Client, log *logger.Logger) (contracts.PriceProvider, error) {
	var p contracts.PriceProvider
	switch cfg.Provider {
	case config.ProviderTWSE:
		if clients.TWSE == nil {
			return nil, fmt.Errorf("provider %s: client not configured", cfg.Provider)
		}
		p = NewTWSE(clients.TWSE, log)
	case config.ProviderFinMind:
		if clients.FinMind == nil {
			return nil, fmt.Errorf("provider %s: client not configured", cfg.Provider)
		}
		p = NewFinMind(clients.FinMind, log)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	if rdb.Enabled() {
		p = NewCached(p, redis.NewCache(rdb, "livermore"), redis.TTLMedium, log)
	}
	return p, nil
}
