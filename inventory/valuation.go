package inventory

// Valuation 基于当前 mid 计算未实现盈亏。
func (a *Account) Valuation(mid float64) (net float64, unrealized float64) {
	net = a.Inventory
	unrealized = (mid - a.avgCost) * a.Inventory
	return
}

// Equity 按 mid 盯市：cash + inventory*mid。
func (a *Account) Equity(mid float64) float64 {
	return a.Cash + a.Inventory*mid
}
