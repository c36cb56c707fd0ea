package dca

import "math"

// MaxDrawdown calcula a maior queda percentual em relação ao pico histórico da
// série, em valor absoluto. Série vazia retorna 0. Uma passada, O(n).
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	runningMax := values[0]
	worst := 0.0

	for _, v := range values {
		if v > runningMax {
			runningMax = v
		}
		if runningMax == 0 {
			continue
		}

		drawdown := (v - runningMax) / runningMax * 100
		if drawdown < worst {
			worst = drawdown
		}
	}

	return round2(math.Abs(worst))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
