package risk

// DrawdownTracker 逐点跟踪权益峰值与回撤，供 tick 循环按期记录。
// Bands 为告警档位（回撤比例，例如 [0.05, 0.1, 0.2]），只做提示，不干预报价。
type DrawdownTracker struct {
	Bands []float64

	started  bool
	peak     float64
	current  float64
	maxAbs   float64
	maxPct   float64
	lastBand int
}

// NewDrawdownTracker 创建 tracker；bands 需按升序给出。
func NewDrawdownTracker(bands []float64) *DrawdownTracker {
	return &DrawdownTracker{Bands: bands, lastBand: -1}
}

// Observe 记录一个权益点，返回当前绝对回撤，以及本次是否新跨越了更高的档位。
func (d *DrawdownTracker) Observe(equity float64) (drawdown float64, crossedBand float64, crossed bool) {
	if !d.started || equity > d.peak {
		d.peak = equity
		d.started = true
	}
	d.current = d.peak - equity
	if d.current > d.maxAbs {
		d.maxAbs = d.current
	}
	pct := 0.0
	if d.peak > 0 {
		pct = d.current / d.peak
	}
	if pct > d.maxPct {
		d.maxPct = pct
	}

	// 找到最高已跨越的档位
	bandIdx := -1
	for i := range d.Bands {
		if pct >= d.Bands[i] {
			bandIdx = i
		}
	}
	if bandIdx > d.lastBand {
		d.lastBand = bandIdx
		return d.current, d.Bands[bandIdx], true
	}
	if bandIdx < 0 {
		// 回到档位以下后允许再次提示
		d.lastBand = -1
	}
	return d.current, 0, false
}

func (d *DrawdownTracker) Peak() float64 { return d.peak }

// Current 返回最近一点的绝对回撤。
func (d *DrawdownTracker) Current() float64 { return d.current }

// Max 返回绝对金额最大回撤，与 MaxDrawdown 对同一序列的结果一致。
func (d *DrawdownTracker) Max() float64 { return d.maxAbs }

// MaxPct 返回比例最大回撤。
func (d *DrawdownTracker) MaxPct() float64 { return d.maxPct }
