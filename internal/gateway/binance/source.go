package binance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tradescope/internal/logger"
	"tradescope/internal/market"
	symbolpkg "tradescope/internal/pkg/symbol"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"
)

const (
	maxHistoryLimit = 1500

	codeInvalidSymbol = -1121
)

// Source pages USDT-M futures klines into a market.Series.
type Source struct {
	cfg     Config
	client  *futures.Client
	limiter *rate.Limiter
	now     func() time.Time
}

var _ market.Provider = (*Source)(nil)

func New(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	client := futures.NewClient("", "")
	client.BaseURL = final.RESTBaseURL
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyEnabled && final.RESTProxyURL != "" {
		proxyURL, err := url.Parse(final.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	perSec := rate.Limit(float64(final.RateLimitPerMin) / 60.0)
	return &Source{
		cfg:     final,
		client:  client,
		limiter: rate.NewLimiter(perSec, 1),
		now:     time.Now,
	}, nil
}

// WithClock replaces the clock used for lookback windows and for dropping the
// still-forming last kline.
func (s *Source) WithClock(now func() time.Time) *Source {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Source) Name() string { return "binance" }

// Fetch pulls every closed bar of the lookback window, page by page.
func (s *Source) Fetch(ctx context.Context, symbol, timeframe string, lookbackDays int) (*market.Series, error) {
	norm := symbolpkg.Normalize(symbol)
	if norm == "" {
		return nil, fmt.Errorf("%w: %q", market.ErrInvalidSymbol, symbol)
	}
	tf, err := market.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	start, end := tf.LookbackRange(s.now(), lookbackDays)
	step := tf.Duration.Milliseconds()

	var out []market.Candle
	cursor := start
	for cursor <= end {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		remaining := int((end-cursor)/step) + 1
		limit := min(max(remaining, 1), s.cfg.MaxBatch)
		page, err := s.fetchPage(ctx, norm, tf.SourceInterval, cursor, end, limit)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		out = append(out, page...)
		next := page[len(page)-1].OpenTime + step
		if next <= cursor {
			break
		}
		cursor = next
	}
	out = dropUnclosed(out, tf.Duration, s.now())
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: binance returned no klines for %s@%s", market.ErrNotFound, norm, tf.Key)
	}
	logger.Debugf("[gateway] binance %s@%s fetched %d klines", norm, tf.Key, len(out))
	return market.NewSeries(norm, tf.Key, out)
}

func (s *Source) fetchPage(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]market.Candle, error) {
	kls, err := s.client.NewKlinesService().
		Symbol(symbolpkg.Binance.ToExchange(symbol)).
		Interval(interval).
		StartTime(start).
		EndTime(end).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, classify(ctx, symbol, err)
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
			Trades:    kl.TradeNum,
		})
	}
	return out, nil
}

func classify(ctx context.Context, symbol string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) && apiErr.Code == codeInvalidSymbol {
		return fmt.Errorf("%w: binance does not list %s: %v", market.ErrNotFound, symbol, apiErr)
	}
	return fmt.Errorf("%w: binance klines %s: %v", market.ErrUnavailable, symbol, err)
}

// dropUnclosed removes the last kline while it is still forming.
func dropUnclosed(klines []market.Candle, interval time.Duration, now time.Time) []market.Candle {
	if len(klines) == 0 || interval <= 0 {
		return klines
	}
	last := klines[len(klines)-1]
	if now.UnixMilli() < last.OpenTime+interval.Milliseconds() {
		return klines[:len(klines)-1]
	}
	return klines
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
