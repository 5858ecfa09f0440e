package symbol

import (
	"fmt"
	"strings"

	"tradescope/internal/market"
)

type Format string

const (
	FormatInternal Format = "internal"
	FormatBinance  Format = "binance"
)

// Converter maps between the internal BASE/QUOTE form and an exchange's form.
type Converter interface {
	ToExchange(internal string) string

	FromExchange(raw string) string

	Format() Format
}

type Symbol struct {
	Base  string
	Quote string
}

func (s Symbol) Internal() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + "/" + s.Quote
}

func (s Symbol) Binance() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + s.Quote
}

var quoteCurrencies = []string{"USDT", "BUSD", "USDC", "TUSD", "FDUSD", "BTC", "ETH", "BNB"}

// Parse accepts BTC/USDT, btcusdt, BTC-USDT, BTC_USDT and BTC/USDT:USDT.
func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}

	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}

	for _, sep := range []string{"/", "-", "_"} {
		if parts := strings.SplitN(s, sep, 2); len(parts) == 2 {
			sym := Symbol{
				Base:  strings.TrimSpace(parts[0]),
				Quote: strings.TrimSpace(parts[1]),
			}
			if !alnum(sym.Base) || !alnum(sym.Quote) {
				return Symbol{}
			}
			return sym
		}
	}

	if !alnum(s) {
		return Symbol{}
	}
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{
				Base:  s[:len(s)-len(quote)],
				Quote: quote,
			}
		}
	}

	return Symbol{}
}

func alnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func Normalize(s string) string {
	return Parse(s).Internal()
}

// NormalizeList normalizes and de-duplicates, dropping entries that do not parse.
func NormalizeList(symbols []string) []string {
	if len(symbols) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		norm := Normalize(s)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

func IsValid(s string) bool {
	sym := Parse(s)
	return sym.Base != "" && sym.Quote != ""
}

// IsNormalized reports whether s is already in BASE/QUOTE form.
func IsNormalized(s string) bool {
	return s != "" && Normalize(s) == s
}

// Resolver implements market.SymbolResolver.
type Resolver struct{}

var _ market.SymbolResolver = Resolver{}

func (Resolver) Resolve(raw string) (string, error) {
	norm := Normalize(raw)
	if norm == "" {
		return "", fmt.Errorf("%w: %q", market.ErrInvalidSymbol, raw)
	}
	return norm, nil
}
