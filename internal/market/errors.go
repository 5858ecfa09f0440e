package market

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("market data not found")
	ErrUnavailable   = errors.New("market data unavailable")
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrFrozen        = errors.New("series is frozen")
	ErrNonMonotonic  = errors.New("timestamps not strictly increasing")
	ErrInvariant     = errors.New("candle invariant violated")
)

// CandleErrorKind separates malformed input from broken bar invariants.
type CandleErrorKind int

const (
	InputError CandleErrorKind = iota
	InvariantViolation
)

func (k CandleErrorKind) String() string {
	switch k {
	case InputError:
		return "input"
	case InvariantViolation:
		return "invariant"
	default:
		return "unknown"
	}
}

// CandleError reports the offending bar index of a rejected series.
type CandleError struct {
	Index  int
	Kind   CandleErrorKind
	Reason string
}

func (e *CandleError) Error() string {
	return fmt.Sprintf("candle %d: %s error: %s", e.Index, e.Kind, e.Reason)
}

func (e *CandleError) Unwrap() error {
	if e.Kind == InputError {
		return ErrNonMonotonic
	}
	return ErrInvariant
}
