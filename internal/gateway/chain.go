package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradescope/internal/logger"
	"tradescope/internal/market"
	"tradescope/internal/pkg/circuit"
)

// Cache is a provider that can also store what other providers return.
type Cache interface {
	market.Provider
	Put(ctx context.Context, series *market.Series) (int, error)
}

// Chain resolves the symbol, serves from the cache when it can, and otherwise
// asks each source in order, writing the first hit through to the cache.
type Chain struct {
	resolver market.SymbolResolver
	cache    Cache
	sources  []market.Provider
	breakers []*circuit.Breaker
}

var _ market.Provider = (*Chain)(nil)

// NewChain builds a chain. cache may be nil.
func NewChain(resolver market.SymbolResolver, cache Cache, sources ...market.Provider) *Chain {
	return &Chain{resolver: resolver, cache: cache, sources: sources}
}

// WithBreakers puts a circuit breaker in front of every source. A source that
// failed threshold times in a row is skipped as unavailable until cooldown
// has passed.
func (c *Chain) WithBreakers(threshold int, cooldown time.Duration) *Chain {
	c.breakers = make([]*circuit.Breaker, len(c.sources))
	for i, src := range c.sources {
		c.breakers[i] = circuit.New(src.Name(), threshold, cooldown)
	}
	return c
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Fetch(ctx context.Context, symbol, timeframe string, lookbackDays int) (*market.Series, error) {
	norm := symbol
	if c.resolver != nil {
		var err error
		if norm, err = c.resolver.Resolve(symbol); err != nil {
			return nil, err
		}
	}

	if c.cache != nil {
		s, err := c.cache.Fetch(ctx, norm, timeframe, lookbackDays)
		switch {
		case err == nil:
			logger.Debugf("[gateway] %s@%s served from %s", norm, timeframe, c.cache.Name())
			return s, nil
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case !errors.Is(err, market.ErrNotFound):
			logger.Warnf("[gateway] cache read %s@%s failed: %v", norm, timeframe, err)
		}
	}

	var unavailable []error
	for i, src := range c.sources {
		br := c.breaker(i)
		if !br.Allow() {
			unavailable = append(unavailable, fmt.Errorf("%s: circuit open", src.Name()))
			continue
		}
		s, err := src.Fetch(ctx, norm, timeframe, lookbackDays)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// the source answered, but with bars that break series invariants
			var candleErr *market.CandleError
			if errors.As(err, &candleErr) {
				br.Success()
				logger.Errorf("[gateway] %s returned a malformed %s@%s: %v", src.Name(), norm, timeframe, err)
				return nil, err
			}
			if errors.Is(err, market.ErrNotFound) {
				br.Success()
				logger.Debugf("[gateway] %s has no %s@%s: %v", src.Name(), norm, timeframe, err)
				continue
			}
			br.Failure()
			logger.Warnf("[gateway] %s fetch %s@%s failed: %v", src.Name(), norm, timeframe, err)
			unavailable = append(unavailable, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		br.Success()
		if c.cache != nil {
			if _, err := c.cache.Put(ctx, s); err != nil {
				logger.Warnf("[gateway] cache write %s@%s failed: %v", norm, timeframe, err)
			}
		}
		logger.Infof("[gateway] %s@%s: %d bars from %s", norm, timeframe, s.Len(), src.Name())
		return s, nil
	}
	if len(unavailable) > 0 {
		return nil, fmt.Errorf("%w: %s@%s: %w", market.ErrUnavailable, norm, timeframe, errors.Join(unavailable...))
	}
	return nil, fmt.Errorf("%w: no source has %s@%s", market.ErrNotFound, norm, timeframe)
}

func (c *Chain) breaker(i int) *circuit.Breaker {
	if i < len(c.breakers) {
		return c.breakers[i]
	}
	return nil
}
