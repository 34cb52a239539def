package sim

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// latencyWindowSize 只保留最近的处理耗时样本。
const latencyWindowSize = 1000

// LatencyStats 单个 tick 处理耗时（Step 开始到记账完成）的统计。
type LatencyStats struct {
	Samples int
	Mean    time.Duration
	P50     time.Duration
	P95     time.Duration
	P99     time.Duration
}

// latencyWindow 固定容量的环形缓冲，单位为秒。
type latencyWindow struct {
	buf  []float64
	next int
	full bool
}

func newLatencyWindow(size int) *latencyWindow {
	return &latencyWindow{buf: make([]float64, size)}
}

func (w *latencyWindow) add(d time.Duration) {
	w.buf[w.next] = d.Seconds()
	w.next++
	if w.next == len(w.buf) {
		w.next = 0
		w.full = true
	}
}

func (w *latencyWindow) samples() []float64 {
	if w.full {
		return append([]float64(nil), w.buf...)
	}
	return append([]float64(nil), w.buf[:w.next]...)
}

func (w *latencyWindow) stats() LatencyStats {
	xs := w.samples()
	if len(xs) == 0 {
		return LatencyStats{}
	}
	sort.Float64s(xs)
	q := func(p float64) time.Duration {
		return seconds(stat.Quantile(p, stat.Empirical, xs, nil))
	}
	return LatencyStats{
		Samples: len(xs),
		Mean:    seconds(stat.Mean(xs, nil)),
		P50:     q(0.5),
		P95:     q(0.95),
		P99:     q(0.99),
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
