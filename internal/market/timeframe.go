package market

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Timeframe maps a bar interval key to its duration and the interval name the
// exchange expects.
type Timeframe struct {
	Key            string
	Duration       time.Duration
	SourceInterval string
}

var supportedTimeframes = map[string]Timeframe{
	"1m":  {Key: "1m", Duration: time.Minute, SourceInterval: "1m"},
	"5m":  {Key: "5m", Duration: 5 * time.Minute, SourceInterval: "5m"},
	"15m": {Key: "15m", Duration: 15 * time.Minute, SourceInterval: "15m"},
	"30m": {Key: "30m", Duration: 30 * time.Minute, SourceInterval: "30m"},
	"1h":  {Key: "1h", Duration: time.Hour, SourceInterval: "1h"},
	"4h":  {Key: "4h", Duration: 4 * time.Hour, SourceInterval: "4h"},
	"1d":  {Key: "1d", Duration: 24 * time.Hour, SourceInterval: "1d"},
	"1w":  {Key: "1w", Duration: 7 * 24 * time.Hour, SourceInterval: "1w"},
}

func ParseTimeframe(input string) (Timeframe, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	tf, ok := supportedTimeframes[key]
	if !ok {
		return Timeframe{}, fmt.Errorf("unsupported timeframe: %q", input)
	}
	return tf, nil
}

// SupportedTimeframes returns every supported key, sorted.
func SupportedTimeframes() []string {
	keys := make([]string, 0, len(supportedTimeframes))
	for k := range supportedTimeframes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func alignDown(ts, step int64) int64 {
	if step <= 0 {
		return ts
	}
	rem := ts % step
	if rem < 0 {
		rem += step
	}
	return ts - rem
}

// LookbackRange returns the aligned [start, end] millisecond range covering
// the given number of days before now.
func (tf Timeframe) LookbackRange(now time.Time, days int) (int64, int64) {
	step := tf.Duration.Milliseconds()
	end := alignDown(now.UnixMilli(), step)
	start := alignDown(now.Add(-time.Duration(days)*24*time.Hour).UnixMilli(), step)
	if start > end {
		start = end
	}
	return start, end
}

// ExpectedCandles is the number of bars in [start, end] inclusive.
func (tf Timeframe) ExpectedCandles(start, end int64) int64 {
	step := tf.Duration.Milliseconds()
	if end < start || step == 0 {
		return 0
	}
	return ((end - start) / step) + 1
}
