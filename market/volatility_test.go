package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollingVolatility_Constant(t *testing.T) {
	assert.Equal(t, 0.0, RollingVolatility([]float64{100, 100, 100, 100}, 0))
}

func TestRollingVolatility_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, RollingVolatility([]float64{1}, 0))
	assert.Equal(t, 0.0, RollingVolatility(nil, 0))
	// 单个收益率的总体标准差为 0
	assert.Equal(t, 0.0, RollingVolatility([]float64{100, 101}, 0))
}

func TestRollingVolatility_KnownValue(t *testing.T) {
	prices := []float64{100, 110, 99}
	r1 := math.Log(110.0 / 100.0)
	r2 := math.Log(99.0 / 110.0)
	mean := (r1 + r2) / 2
	want := math.Sqrt(((r1-mean)*(r1-mean) + (r2-mean)*(r2-mean)) / 2)
	assert.InDelta(t, want, RollingVolatility(prices, 0), 1e-15)
}

func TestRollingVolatility_OrderSensitive(t *testing.T) {
	a := RollingVolatility([]float64{100, 101, 100, 101}, 0)
	b := RollingVolatility([]float64{100, 100, 101, 101}, 0)
	assert.NotEqual(t, a, b)
}

func TestRollingVolatility_Window(t *testing.T) {
	prices := []float64{50, 150, 100, 100, 100}
	assert.Greater(t, RollingVolatility(prices, 0), 0.0)
	// 最近 3 个价格恒定
	assert.Equal(t, 0.0, RollingVolatility(prices, 3))
}

func TestRollingVolatility_NonNegativeAndSkipsBadPrices(t *testing.T) {
	vol := RollingVolatility([]float64{100, 0, 101, 102}, 0)
	assert.GreaterOrEqual(t, vol, 0.0)
	assert.False(t, math.IsNaN(vol))
}

func TestEWMAVolatility(t *testing.T) {
	assert.Equal(t, 0.0, EWMAVolatility([]float64{100}, 0.94))
	assert.Equal(t, 0.0, EWMAVolatility([]float64{100, 100, 100}, 0.94))
	r := math.Log(101.0 / 100.0)
	assert.InDelta(t, math.Abs(r), EWMAVolatility([]float64{100, 101}, 0), 1e-15)
}

func TestVolatilityEstimator(t *testing.T) {
	h := NewPriceHistory(0)
	est := NewVolatilityEstimator(3, h)
	assert.False(t, est.IsReady())
	h.Append(100)
	assert.False(t, est.IsReady())
	h.Append(120)
	assert.True(t, est.IsReady())
	for i := 0; i < 3; i++ {
		h.Append(100)
	}
	assert.Equal(t, 0.0, est.Value())
	assert.Equal(t, 3, est.Window())
}

func TestPriceHistoryBounded(t *testing.T) {
	h := NewPriceHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(100 + float64(i))
	}
	assert.Equal(t, []float64{102, 103, 104}, h.Values())
	assert.Equal(t, []float64{103, 104}, h.Window(2))
	last, ok := h.Last()
	assert.True(t, ok)
	assert.Equal(t, 104.0, last)
}

func TestClassifyRegime(t *testing.T) {
	th := DefaultRegimeThresholds()
	assert.Equal(t, RegimeLow, ClassifyRegime(0.05, th))
	assert.Equal(t, RegimeNormal, ClassifyRegime(0.1, th))
	assert.Equal(t, RegimeHigh, ClassifyRegime(0.3, RegimeThresholds{}))
	assert.Equal(t, RegimeExtreme, ClassifyRegime(0.5, th))
	assert.True(t, RegimeExtreme.IsHighVolatility())
	assert.Equal(t, "normal", RegimeNormal.String())
}

func flatPrices(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100
	}
	return out
}

func TestVolatilityPercentile(t *testing.T) {
	jumps := []float64{100, 110, 100, 110, 100, 110}

	// 平静之后突然放大：当前窗口高于所有历史窗口
	assert.Equal(t, 1.0, VolatilityPercentile(append(flatPrices(30), jumps...), 5))

	// 先剧烈后平静：当前窗口不高于任何历史窗口
	var calmed []float64
	for i := 0; i < 3; i++ {
		calmed = append(calmed, jumps...)
	}
	calmed = append(calmed, flatPrices(30)...)
	assert.Equal(t, 0.0, VolatilityPercentile(calmed, 5))

	// 样本不足
	assert.Equal(t, 0.5, VolatilityPercentile(flatPrices(8), 5))
}

func TestVolatilityClustering(t *testing.T) {
	assert.Equal(t, 0.0, VolatilityClustering(flatPrices(40)))
	assert.Equal(t, 0.0, VolatilityClustering([]float64{100, 101, 102}))

	// 绝对收益率大小交替，一阶自相关接近 -1
	var prices []float64
	for k := 0; k < 30; k++ {
		prices = append(prices, 100+float64(k), 100+float64(k))
	}
	score := VolatilityClustering(prices)
	assert.Greater(t, score, 0.9)
	assert.LessOrEqual(t, score, 1.0)
}

func TestVolatilityEstimatorPeekMatchesAppend(t *testing.T) {
	cases := []struct {
		name           string
		window, maxLen int
	}{
		{"全量历史", 0, 0},
		{"窗口", 3, 0},
		{"有界历史", 0, 4},
		{"窗口为 1", 1, 0},
	}
	prices := []float64{100, 103, 99, 104, 101, 98}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewPriceHistory(tc.maxLen)
			est := NewVolatilityEstimator(tc.window, h)
			for _, p := range prices {
				before := h.Len()
				peek := est.Peek(p)
				assert.Equal(t, before, h.Len(), "Peek must not append")
				h.Append(p)
				assert.InDelta(t, est.Value(), peek, 1e-15)
			}
		})
	}
}
