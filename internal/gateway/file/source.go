// Package file serves candle series from JSON kline dumps on disk.
//
// A dump lives at <dir>/<BASEQUOTE>_<timeframe>.json and holds either Binance
// kline rows ([openTime, "open", "high", "low", "close", "volume", closeTime,
// ...]) or objects keyed open_time/open/high/low/close/volume. The array may
// also sit under a top-level "data" key.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"tradescope/internal/logger"
	"tradescope/internal/market"
	symbolpkg "tradescope/internal/pkg/symbol"

	"github.com/tidwall/gjson"
)

type Source struct {
	dir string
}

var _ market.Provider = (*Source)(nil)

func New(dir string) *Source {
	return &Source{dir: dir}
}

func (s *Source) Name() string { return "file" }

// Path is where the dump for symbol@timeframe is expected.
func (s *Source) Path(symbol, timeframe string) string {
	return filepath.Join(s.dir, symbolpkg.Binance.ToExchange(symbolpkg.Normalize(symbol))+"_"+timeframe+".json")
}

// Fetch loads the dump and keeps the lookback window ending at its last bar.
// A non-positive lookback keeps every bar.
func (s *Source) Fetch(ctx context.Context, symbol, timeframe string, lookbackDays int) (*market.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	norm := symbolpkg.Normalize(symbol)
	if norm == "" {
		return nil, fmt.Errorf("%w: %q", market.ErrInvalidSymbol, symbol)
	}
	tf, err := market.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	path := s.Path(norm, tf.Key)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no dump at %s", market.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", market.ErrUnavailable, path, err)
	}
	bars, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", market.ErrUnavailable, path, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", market.ErrNotFound, path)
	}
	if lookbackDays > 0 {
		cutoff := bars[len(bars)-1].OpenTime - int64(lookbackDays)*24*3_600_000
		i := sort.Search(len(bars), func(i int) bool { return bars[i].OpenTime > cutoff })
		bars = bars[i:]
	}
	logger.Debugf("[gateway] file %s@%s loaded %d bars from %s", norm, tf.Key, len(bars), path)
	return market.NewSeries(norm, tf.Key, bars)
}

var (
	openTimeKeys  = []string{"open_time", "openTime", "t", "timestamp"}
	closeTimeKeys = []string{"close_time", "closeTime", "T"}
	openKeys      = []string{"open", "o"}
	highKeys      = []string{"high", "h"}
	lowKeys       = []string{"low", "l"}
	closeKeys     = []string{"close", "c"}
	volumeKeys    = []string{"volume", "v"}
	tradeKeys     = []string{"trades", "n"}
)

// Parse decodes a kline dump. Rows keep file order.
func Parse(raw []byte) ([]market.Candle, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("invalid json")
	}
	root := gjson.ParseBytes(raw)
	if root.IsObject() {
		root = root.Get("data")
	}
	if !root.IsArray() {
		return nil, errors.New("expected an array of klines")
	}
	var (
		out    []market.Candle
		rowErr error
	)
	root.ForEach(func(idx, row gjson.Result) bool {
		c, err := parseRow(row)
		if err != nil {
			rowErr = fmt.Errorf("row %d: %w", idx.Int(), err)
			return false
		}
		out = append(out, c)
		return true
	})
	return out, rowErr
}

func parseRow(row gjson.Result) (market.Candle, error) {
	switch {
	case row.IsArray():
		cols := row.Array()
		if len(cols) < 6 {
			return market.Candle{}, fmt.Errorf("kline row has %d columns, want at least 6", len(cols))
		}
		c := market.Candle{
			OpenTime: cols[0].Int(),
			Open:     cols[1].Float(),
			High:     cols[2].Float(),
			Low:      cols[3].Float(),
			Close:    cols[4].Float(),
			Volume:   cols[5].Float(),
		}
		if len(cols) > 6 {
			c.CloseTime = cols[6].Int()
		}
		if len(cols) > 8 {
			c.Trades = cols[8].Int()
		}
		return c, nil
	case row.IsObject():
		openTime, ok := first(row, openTimeKeys)
		if !ok {
			return market.Candle{}, errors.New("kline object has no open time")
		}
		c := market.Candle{OpenTime: openTime.Int()}
		for _, f := range []struct {
			keys []string
			dst  *float64
		}{
			{openKeys, &c.Open}, {highKeys, &c.High}, {lowKeys, &c.Low}, {closeKeys, &c.Close},
		} {
			v, ok := first(row, f.keys)
			if !ok {
				return market.Candle{}, fmt.Errorf("kline object has no %s", f.keys[0])
			}
			*f.dst = v.Float()
		}
		if v, ok := first(row, volumeKeys); ok {
			c.Volume = v.Float()
		}
		if v, ok := first(row, closeTimeKeys); ok {
			c.CloseTime = v.Int()
		}
		if v, ok := first(row, tradeKeys); ok {
			c.Trades = v.Int()
		}
		return c, nil
	default:
		return market.Candle{}, fmt.Errorf("unexpected kline %s", row.Type)
	}
}

func first(row gjson.Result, keys []string) (gjson.Result, bool) {
	for _, k := range keys {
		if v := row.Get(k); v.Exists() {
			return v, true
		}
	}
	return gjson.Result{}, false
}
