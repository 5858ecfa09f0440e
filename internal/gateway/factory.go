package gateway

import (
	"fmt"
	"strings"

	"tradescope/internal/config"
	"tradescope/internal/gateway/binance"
	"tradescope/internal/gateway/file"
	"tradescope/internal/market"
	"tradescope/internal/pkg/symbol"
	"tradescope/internal/store/candles"
)

// Market is the chain built from the market section plus the cache it owns.
type Market struct {
	*Chain
	Cache *candles.Store
}

// Close releases the cache databases.
func (m *Market) Close() error {
	if m == nil || m.Cache == nil {
		return nil
	}
	return m.Cache.Close()
}

// NewFromConfig builds sources in market.sources order behind the candle
// cache. An empty cache_dir disables caching.
func NewFromConfig(cfg *config.Config) (*Market, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	var sources []market.Provider
	for _, name := range cfg.Market.Sources {
		switch strings.ToLower(name) {
		case config.SourceBinance:
			src, err := binance.New(cfg.BinanceSource())
			if err != nil {
				return nil, fmt.Errorf("binance source: %w", err)
			}
			sources = append(sources, src)
		case config.SourceFile:
			sources = append(sources, file.New(cfg.Market.FileDir))
		default:
			return nil, fmt.Errorf("unsupported market source: %s", name)
		}
	}
	out := &Market{}
	var cache Cache
	if dir := strings.TrimSpace(cfg.Market.CacheDir); dir != "" {
		store, err := candles.NewStore(dir)
		if err != nil {
			return nil, fmt.Errorf("candle cache: %w", err)
		}
		out.Cache = store
		cache = store
	}
	out.Chain = NewChain(symbol.Resolver{}, cache, sources...).
		WithBreakers(cfg.Market.BreakerThreshold, cfg.Market.BreakerCooldown())
	return out, nil
}
