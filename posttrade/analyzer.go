package posttrade

import (
	"market-maker-sim/order"
)

// DefaultHorizon 是第二个 markout 观察点（以 tick 计）。
const DefaultHorizon = 5

// FillRecord 记录一笔成交以及其后若干 tick 的中间价。
type FillRecord struct {
	ID        string
	Seq       uint64
	Side      order.Direction
	FillPrice float64
	MidAfter1 float64
	MidAfterN float64

	ticksSeen int
}

// Markout 以成交价为基准的相对收益，买单价格上涨为正，卖单价格下跌为正。
func (r FillRecord) Markout(mid float64) float64 {
	if r.FillPrice == 0 {
		return 0
	}
	return float64(r.Side.Sign()) * (mid - r.FillPrice) / r.FillPrice
}

// Stats contains statistics computed by the analyzer
type Stats struct {
	AdverseSelectionRate float64
	AvgMarkout1          float64
	AvgMarkoutN          float64
	TotalFills           int
	AnalyzedFills        int
}

// Analyzer 按 tick 推进的逆向选择分析器。
// 成交在 OnFill 登记，每次 OnMid 推进一格；第 1 个 tick 的 markout 为负即视为逆向选择。
// 非并发安全，由 tick 循环独占。
type Analyzer struct {
	horizon int
	pending []*FillRecord

	total, analyzed, adverse int
	sum1, sumN               float64
}

// NewAnalyzer creates a new post-trade analyzer; horizon <= 1 uses DefaultHorizon.
func NewAnalyzer(horizon int) *Analyzer {
	if horizon <= 1 {
		horizon = DefaultHorizon
	}
	return &Analyzer{horizon: horizon}
}

// OnFill records a filled order
func (a *Analyzer) OnFill(f order.Fill) {
	a.total++
	a.pending = append(a.pending, &FillRecord{
		ID:        f.ID,
		Seq:       f.Seq,
		Side:      f.Direction,
		FillPrice: f.Price,
	})
}

// OnMid 推进所有待观察成交，应在本 tick 成交登记之前调用。
func (a *Analyzer) OnMid(mid float64) {
	if len(a.pending) == 0 {
		return
	}
	kept := a.pending[:0]
	for _, rec := range a.pending {
		rec.ticksSeen++
		if rec.ticksSeen == 1 {
			rec.MidAfter1 = mid
			m := rec.Markout(mid)
			a.analyzed++
			a.sum1 += m
			if m < 0 {
				a.adverse++
			}
		}
		if rec.ticksSeen >= a.horizon {
			rec.MidAfterN = mid
			a.sumN += rec.Markout(mid)
			continue
		}
		kept = append(kept, rec)
	}
	for i := len(kept); i < len(a.pending); i++ {
		a.pending[i] = nil
	}
	a.pending = kept
}

// Pending 返回尚未到达 horizon 的成交数。
func (a *Analyzer) Pending() int { return len(a.pending) }

// Stats computes and returns statistics
func (a *Analyzer) Stats() Stats {
	s := Stats{TotalFills: a.total, AnalyzedFills: a.analyzed}
	if a.analyzed > 0 {
		s.AdverseSelectionRate = float64(a.adverse) / float64(a.analyzed)
		s.AvgMarkout1 = a.sum1 / float64(a.analyzed)
	}
	if completed := a.total - len(a.pending); completed > 0 {
		s.AvgMarkoutN = a.sumN / float64(completed)
	}
	return s
}
