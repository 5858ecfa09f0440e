package indicator

import "fmt"

// RSI is Wilder's relative strength index, first defined at index window.
// A zero average loss reads 100, including windows with no movement at all.
func RSI(closes []float64, window int) Line {
	name := fmt.Sprintf("rsi_%d", window)
	n := len(closes)
	if window < 1 || n <= window {
		return undefinedLine(name, n)
	}
	out := make([]float64, n)
	w := float64(window)
	var gain, loss float64
	for i := 1; i <= window; i++ {
		g, l := moveOf(closes[i] - closes[i-1])
		gain += g
		loss += l
	}
	avgGain, avgLoss := gain/w, loss/w
	out[window] = rsiValue(avgGain, avgLoss)
	for i := window + 1; i < n; i++ {
		g, l := moveOf(closes[i] - closes[i-1])
		avgGain = (avgGain*(w-1) + g) / w
		avgLoss = (avgLoss*(w-1) + l) / w
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return newLine(name, out, window)
}

func moveOf(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}
