package market

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RollingVolatility returns the population standard deviation of successive
// log returns over the trailing window prices (window <= 0 uses all of them).
// Fewer than two prices yields 0. Pairs with a non-positive price are skipped.
func RollingVolatility(prices []float64, window int) float64 {
	if window > 0 && len(prices) > window {
		prices = prices[len(prices)-window:]
	}
	returns := logReturns(prices)
	if len(returns) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(returns, nil)
	return std
}

// EWMAVolatility weights squared log returns by decay^age, newest first.
// decay outside (0,1] falls back to 0.94.
func EWMAVolatility(prices []float64, decay float64) float64 {
	if decay <= 0 || decay > 1 {
		decay = 0.94
	}
	returns := logReturns(prices)
	if len(returns) == 0 {
		return 0
	}
	squares := make([]float64, len(returns))
	weights := make([]float64, len(returns))
	w := 1.0
	for i := len(returns) - 1; i >= 0; i-- {
		squares[i] = returns[i] * returns[i]
		weights[i] = w
		w *= decay
	}
	return math.Sqrt(stat.Mean(squares, weights))
}

// DefaultPercentileWindow 波动率分位数的默认窗口（收益率个数）。
const DefaultPercentileWindow = 20

// VolatilityPercentile 当前窗口波动率在历史滚动窗口波动率中的分位（0..1）。
// 收益率不足两个完整窗口时返回 0.5。
func VolatilityPercentile(prices []float64, window int) float64 {
	if window < 2 {
		window = DefaultPercentileWindow
	}
	returns := logReturns(prices)
	if len(returns) < 2*window {
		return 0.5
	}
	_, current := stat.PopMeanStdDev(returns[len(returns)-window:], nil)
	below := 0
	total := 0
	for end := window; end < len(returns); end++ {
		_, vol := stat.PopMeanStdDev(returns[end-window:end], nil)
		if vol < current {
			below++
		}
		total++
	}
	return float64(below) / float64(total)
}

// VolatilityClustering 绝对收益率的一阶自相关的绝对值；越接近 1 聚集越明显。
// 少于 10 个收益率或收益率无波动时为 0。
func VolatilityClustering(prices []float64) float64 {
	returns := logReturns(prices)
	if len(returns) < 10 {
		return 0
	}
	abs := make([]float64, len(returns))
	for i, r := range returns {
		abs[i] = math.Abs(r)
	}
	c := stat.Correlation(abs[1:], abs[:len(abs)-1], nil)
	if math.IsNaN(c) {
		return 0
	}
	return math.Abs(c)
}

func logReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			continue
		}
		out = append(out, math.Log(prices[i]/prices[i-1]))
	}
	return out
}

// VolatilityEstimator couples a PriceHistory with a configured window.
type VolatilityEstimator struct {
	window  int
	history *PriceHistory
}

// NewVolatilityEstimator creates an estimator over history.
func NewVolatilityEstimator(window int, history *PriceHistory) *VolatilityEstimator {
	if history == nil {
		history = NewPriceHistory(0)
	}
	return &VolatilityEstimator{window: window, history: history}
}

// Value recomputes the rolling volatility from the current history.
func (v *VolatilityEstimator) Value() float64 {
	return RollingVolatility(v.history.Values(), v.window)
}

// Peek 返回追加 next 之后的波动率，不修改历史。
func (v *VolatilityEstimator) Peek(next float64) float64 {
	keep := v.window
	if keep <= 0 {
		keep = v.history.MaxLen
	}
	var prev []float64
	switch {
	case keep <= 0:
		prev = v.history.Values()
	case keep > 1:
		prev = v.history.Window(keep - 1)
	}
	prices := make([]float64, 0, len(prev)+1)
	prices = append(prices, prev...)
	prices = append(prices, next)
	return RollingVolatility(prices, v.window)
}

// Window returns the configured window length.
func (v *VolatilityEstimator) Window() int { return v.window }

// IsReady reports whether at least two prices are in the window.
func (v *VolatilityEstimator) IsReady() bool {
	return len(v.history.Window(v.window)) >= 2
}
