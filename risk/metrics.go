package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SharpeRatio = mean/std（总体标准差，无风险利率为 0）。
// annualization > 0 时再乘以 sqrt(annualization)，例如每日收益传 252。
func SharpeRatio(returns []float64, annualization float64) (float64, error) {
	if len(returns) < 2 {
		return 0, fmt.Errorf("%w: need >= 2 returns, got %d", ErrInsufficientData, len(returns))
	}
	mean, std := stat.PopMeanStdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0, fmt.Errorf("%w: zero standard deviation", ErrInsufficientData)
	}
	sr := mean / std
	if annualization > 0 {
		sr *= math.Sqrt(annualization)
	}
	return sr, nil
}

// SortinoRatio 用下行偏差代替标准差；没有负收益时无定义。
func SortinoRatio(returns []float64, annualization float64) (float64, error) {
	if len(returns) < 2 {
		return 0, fmt.Errorf("%w: need >= 2 returns, got %d", ErrInsufficientData, len(returns))
	}
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return 0, fmt.Errorf("%w: no negative returns", ErrInsufficientData)
	}
	mean := stat.Mean(returns, nil)
	sr := mean / math.Sqrt(floats.Dot(downside, downside)/float64(len(downside)))
	if annualization > 0 {
		sr *= math.Sqrt(annualization)
	}
	return sr, nil
}

// CalmarRatio = 年化收益 / 最大回撤比例。
func CalmarRatio(annualReturn, maxDrawdownPct float64) (float64, error) {
	if maxDrawdownPct <= 0 {
		return 0, fmt.Errorf("%w: no drawdown", ErrInsufficientData)
	}
	return annualReturn / maxDrawdownPct, nil
}

// MaxDrawdown 返回绝对金额的最大回撤：max_t(runningMax_t - equity_t)。
// 例如 [100,120,90,130,80] 的结果为 50（130 -> 80）。
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	maxDD := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if dd := peak - v; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// MaxDrawdownPct 返回相对运行峰值的最大回撤比例（0.1 = 10%）。
// 峰值不为正时跳过该点。
func MaxDrawdownPct(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	maxDD := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// SimpleReturns 由权益曲线计算逐期收益率；前值为 0 的区间被跳过。
func SimpleReturns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	prev := make([]float64, 0, len(equity)-1)
	cur := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		prev = append(prev, equity[i-1])
		cur = append(cur, equity[i])
	}
	out := make([]float64, len(cur))
	floats.SubTo(out, cur, prev)
	floats.Div(out, prev)
	return out
}
