package indicator

import (
	"fmt"

	"github.com/markcheno/go-talib"
)

// SMA is the simple moving average; first defined at window-1.
func SMA(in []float64, window int) Line {
	name := fmt.Sprintf("sma_%d", window)
	if window < 1 || len(in) < window {
		return undefinedLine(name, len(in))
	}
	if window == 1 {
		return newLine(name, append([]float64(nil), in...), 0)
	}
	return newLine(name, talib.Sma(in, window), window-1)
}

// EMA is seeded with the SMA of the first window, as talib does.
func EMA(in []float64, window int) Line {
	name := fmt.Sprintf("ema_%d", window)
	if window < 1 || len(in) < window {
		return undefinedLine(name, len(in))
	}
	return newLine(name, talib.Ema(in, window), window-1)
}

// ATR uses Wilder smoothing of the true range; first defined at index window.
func ATR(highs, lows, closes []float64, window int) Line {
	name := fmt.Sprintf("atr_%d", window)
	n := len(closes)
	if window < 2 || n <= window || len(highs) != n || len(lows) != n {
		return undefinedLine(name, n)
	}
	return newLine(name, talib.Atr(highs, lows, closes, window), window)
}

// Bollinger returns upper, middle and lower bands at width standard deviations
// around the SMA.
func Bollinger(in []float64, window int, width float64) (Line, Line, Line) {
	n := len(in)
	if window < 2 || n < window {
		return undefinedLine("bb_upper", n), undefinedLine("bb_mid", n), undefinedLine("bb_lower", n)
	}
	upper, mid, lower := talib.BBands(in, window, width, width, talib.SMA)
	return newLine("bb_upper", upper, window-1),
		newLine("bb_mid", mid, window-1),
		newLine("bb_lower", lower, window-1)
}
