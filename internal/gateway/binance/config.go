package binance

import (
	"strings"
	"time"
)

type Config struct {
	RESTBaseURL string
	HTTPTimeout time.Duration

	ProxyEnabled bool
	RESTProxyURL string

	// RateLimitPerMin paces kline requests. Binance weights a 1500-bar
	// klines call at 10 of the 2400 per-minute budget.
	RateLimitPerMin int
	// MaxBatch is the number of klines requested per page.
	MaxBatch int
}

func (c *Config) withDefaults() Config {
	out := *c
	out.RESTBaseURL = strings.TrimSpace(out.RESTBaseURL)
	if out.RESTBaseURL == "" {
		out.RESTBaseURL = "https://fapi.binance.com"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	out.RESTProxyURL = strings.TrimSpace(out.RESTProxyURL)
	if out.RateLimitPerMin <= 0 {
		out.RateLimitPerMin = 120
	}
	if out.MaxBatch <= 0 || out.MaxBatch > maxHistoryLimit {
		out.MaxBatch = maxHistoryLimit
	}
	return out
}
