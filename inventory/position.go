package inventory

// Account 记录库存与现金；仅由 order.Executor 修改。
type Account struct {
	Inventory float64 // 带符号：正=多头，负=空头
	Cash      float64

	avgCost     float64
	realizedPnL float64
	volume      float64
}

// Apply 原子地应用一笔成交：deltaQty 正买负卖。
// 库存与现金总是成对更新。
func (a *Account) Apply(deltaQty, price float64) {
	prev := a.Inventory
	a.Inventory += deltaQty
	a.Cash -= deltaQty * price
	a.volume += abs(deltaQty)
	a.updateCost(prev, deltaQty, price)
}

// updateCost 维护加权平均成本，并在减仓时结算已实现盈亏。
func (a *Account) updateCost(prev, delta, price float64) {
	switch {
	case prev == 0 || sameSign(prev, delta):
		// 开仓或加仓
		total := a.avgCost*prev + price*delta
		if a.Inventory != 0 {
			a.avgCost = total / a.Inventory
		}
	default:
		closing := abs(delta)
		if closing > abs(prev) {
			closing = abs(prev)
		}
		if prev > 0 {
			a.realizedPnL += (price - a.avgCost) * closing
		} else {
			a.realizedPnL += (a.avgCost - price) * closing
		}
		switch {
		case a.Inventory == 0:
			a.avgCost = 0
		case !sameSign(prev, a.Inventory):
			// 反手：剩余部分按成交价开新仓
			a.avgCost = price
		}
	}
}

func (a *Account) NetExposure() float64 { return a.Inventory }

func (a *Account) AvgCost() float64 { return a.avgCost }

func (a *Account) RealizedPnL() float64 { return a.realizedPnL }

// Volume 返回累计成交数量（绝对值）。
func (a *Account) Volume() float64 { return a.volume }

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
