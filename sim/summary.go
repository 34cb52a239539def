package sim

import (
	"market-maker-sim/market"
	"market-maker-sim/posttrade"
	"market-maker-sim/risk"
)

// Summary 基于权益曲线的风险汇总。
type Summary struct {
	RunID          string
	Processed      int
	Skipped        int
	Fills          int
	Inventory      float64
	Cash           float64
	FinalEquity    float64
	RealizedPnL    float64
	Volume         float64
	Sharpe         float64
	SharpeOK       bool // 收益不足两期或方差为 0 时为 false
	MaxDrawdown    float64
	MaxDrawdownPct float64
	// 历史模拟法尾部风险，按收益率比例计；样本少于 risk.MinTailSamples 时 TailOK 为 false
	VaR95             float64
	VaR99             float64
	ExpectedShortfall float64
	TailOK            bool
	// 当前波动率在历史窗口中的分位，以及绝对收益率的聚集程度
	VolPercentile float64
	VolClustering float64
	Latency       LatencyStats
	PostTrade     posttrade.Stats
}

// Summary 计算当前时刻的汇总；可在运行中或结束后调用。
func (r *Runner) Summary() Summary {
	acc := r.exec.Account()
	s := Summary{
		RunID:          r.runID,
		Processed:      r.processed,
		Skipped:        r.skipped,
		Fills:          r.exec.Journal().Len(),
		Inventory:      acc.Inventory,
		Cash:           acc.Cash,
		FinalEquity:    r.last.Equity,
		RealizedPnL:    acc.RealizedPnL(),
		Volume:         acc.Volume(),
		MaxDrawdown:    risk.MaxDrawdown(r.equity),
		MaxDrawdownPct: risk.MaxDrawdownPct(r.equity),
		VolPercentile:  market.VolatilityPercentile(r.history.Values(), r.opts.VolWindow),
		VolClustering:  market.VolatilityClustering(r.history.Values()),
		Latency:        r.latency.stats(),
		PostTrade:      r.post.Stats(),
	}
	returns := risk.SimpleReturns(r.equity)
	if sr, err := risk.SharpeRatio(returns, r.opts.Annualization); err == nil {
		s.Sharpe, s.SharpeOK = sr, true
	}
	v95, err95 := risk.HistoricalVaR(returns, 0.95)
	v99, err99 := risk.HistoricalVaR(returns, 0.99)
	es, errES := risk.ExpectedShortfall(returns, 0.95)
	if err95 == nil && err99 == nil && errES == nil {
		s.VaR95, s.VaR99, s.ExpectedShortfall, s.TailOK = v95, v99, es, true
	}
	return s
}

// Fields 转换为日志字段。
func (s Summary) Fields() map[string]interface{} {
	return map[string]interface{}{
		"run_id":             s.RunID,
		"processed":          s.Processed,
		"skipped":            s.Skipped,
		"fills":              s.Fills,
		"inventory":          s.Inventory,
		"cash":               s.Cash,
		"equity":             s.FinalEquity,
		"realized_pnl":       s.RealizedPnL,
		"volume":             s.Volume,
		"sharpe":             s.Sharpe,
		"sharpe_ok":          s.SharpeOK,
		"max_drawdown":       s.MaxDrawdown,
		"max_drawdown_pct":   s.MaxDrawdownPct,
		"var_95":             s.VaR95,
		"var_99":             s.VaR99,
		"expected_shortfall": s.ExpectedShortfall,
		"tail_ok":            s.TailOK,
		"vol_percentile":     s.VolPercentile,
		"vol_clustering":     s.VolClustering,
		"latency_p50":        s.Latency.P50,
		"latency_p99":        s.Latency.P99,
		"adverse_rate":       s.PostTrade.AdverseSelectionRate,
	}
}
