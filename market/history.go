package market

// PriceHistory 追加式 mid 序列，作为波动率窗口的数据源。
// MaxLen > 0 时只保留最近 MaxLen 个价格。
type PriceHistory struct {
	MaxLen int
	prices []float64
}

// NewPriceHistory creates a history; maxLen <= 0 keeps every price.
func NewPriceHistory(maxLen int) *PriceHistory {
	return &PriceHistory{MaxLen: maxLen}
}

// Append 追加一个 mid。
func (h *PriceHistory) Append(mid float64) {
	h.prices = append(h.prices, mid)
	if h.MaxLen > 0 && len(h.prices) > h.MaxLen {
		// 拷贝到新切片，避免底层数组无限增长
		trimmed := make([]float64, h.MaxLen, h.MaxLen*2)
		copy(trimmed, h.prices[len(h.prices)-h.MaxLen:])
		h.prices = trimmed
	}
}

func (h *PriceHistory) Len() int { return len(h.prices) }

// Values 返回只读视图，调用方不得修改。
func (h *PriceHistory) Values() []float64 { return h.prices }

// Window 返回最近 n 个价格；n <= 0 返回全部。
func (h *PriceHistory) Window(n int) []float64 {
	if n <= 0 || n >= len(h.prices) {
		return h.prices
	}
	return h.prices[len(h.prices)-n:]
}

// Last 返回最新价格。
func (h *PriceHistory) Last() (float64, bool) {
	if len(h.prices) == 0 {
		return 0, false
	}
	return h.prices[len(h.prices)-1], true
}
