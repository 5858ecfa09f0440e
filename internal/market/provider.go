package market

import "context"

// Provider supplies a materialized candle history. Implementations wrap
// ErrNotFound when the symbol or range has no data and ErrUnavailable when the
// backing source cannot be reached.
type Provider interface {
	Fetch(ctx context.Context, symbol, timeframe string, lookbackDays int) (*Series, error)
	Name() string
}

// SymbolResolver turns user input into the normalized symbol form. Failures
// wrap ErrInvalidSymbol.
type SymbolResolver interface {
	Resolve(raw string) (string, error)
}
