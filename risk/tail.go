package risk

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MinTailSamples 历史模拟法 VaR/ES 需要的最少收益率个数。
const MinTailSamples = 30

// HistoricalVaR 历史模拟法 VaR：收益率经验分布 (1-confidence) 分位点对应的损失比例。
// 结果非负，分位点为正收益时为 0。
func HistoricalVaR(returns []float64, confidence float64) (float64, error) {
	sorted, alpha, err := tailInput(returns, confidence)
	if err != nil {
		return 0, err
	}
	q := stat.Quantile(alpha, stat.Empirical, sorted, nil)
	return math.Max(0, -q), nil
}

// ExpectedShortfall 不超过 VaR 分位点的收益率均值对应的损失比例（CVaR）。
func ExpectedShortfall(returns []float64, confidence float64) (float64, error) {
	sorted, alpha, err := tailInput(returns, confidence)
	if err != nil {
		return 0, err
	}
	q := stat.Quantile(alpha, stat.Empirical, sorted, nil)
	n := sort.Search(len(sorted), func(i int) bool { return sorted[i] > q })
	return math.Max(0, -stat.Mean(sorted[:n], nil)), nil
}

func tailInput(returns []float64, confidence float64) ([]float64, float64, error) {
	if confidence <= 0 || confidence >= 1 {
		return nil, 0, fmt.Errorf("confidence must be in (0,1), got %v", confidence)
	}
	if len(returns) < MinTailSamples {
		return nil, 0, fmt.Errorf("%w: need >= %d returns, got %d", ErrInsufficientData, MinTailSamples, len(returns))
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	// 1-0.95 在浮点下略大于 0.05，会让经验分位点多走一格
	alpha := math.Round((1-confidence)*1e12) / 1e12
	return sorted, alpha, nil
}
