package risk

import (
	"math"
	"sort"
)

// ReturnsFromCurve converts an equity series into simple period returns.
func ReturnsFromCurve(curve []float64) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1] == 0 {
			continue
		}
		out = append(out, (curve[i]-curve[i-1])/curve[i-1])
	}
	return out
}

// VaR95 is the historical one-period value-at-risk at 95% confidence,
// expressed as a positive loss fraction. Too little history yields zero.
func VaR95(returns []float64) float64 {
	if len(returns) < 20 {
		return 0
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	// Boundary of the worst 5%: with n=100 that is the 5th-worst return,
	// not the 6th.
	idx := int(math.Ceil(0.05*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	loss := -sorted[idx]
	if loss < 0 {
		return 0
	}
	return loss
}

// Sharpe is the annualized Sharpe ratio of the return series.
// periodsPerYear scales the per-period statistic; zero variance yields zero.
func Sharpe(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance) * math.Sqrt(periodsPerYear)
}
