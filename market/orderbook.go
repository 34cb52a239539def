package market

import "fmt"

// Level 是单侧的最优报价。
type Level struct {
	Price float64
	Size  float64
}

// OrderBook 仅保存每侧的最优价/量，不维护深度。
// 非并发安全：由单一 tick 循环独占。
type OrderBook struct {
	bid    Level
	ask    Level
	hasBid bool
	hasAsk bool
}

func NewOrderBook() *OrderBook {
	return &OrderBook{}
}

// UpdateOrder 覆盖 side 的最优报价；size 为 0 表示清空该侧。
// 不校验交叉盘口（bid > ask 可以表示）。
func (ob *OrderBook) UpdateOrder(price, size float64, side Side) {
	lvl := Level{Price: price, Size: size}
	switch side {
	case SideBid:
		ob.bid, ob.hasBid = lvl, size != 0
	case SideAsk:
		ob.ask, ob.hasAsk = lvl, size != 0
	}
}

// Apply 按 bid、ask 顺序写入一个 tick。
func (ob *OrderBook) Apply(t Tick) {
	ob.UpdateOrder(t.BidPrice, t.BidSize, SideBid)
	ob.UpdateOrder(t.AskPrice, t.AskSize, SideAsk)
}

// Best 返回两侧最优报价；任一侧缺失时 ok 为 false。
func (ob *OrderBook) Best() (bid Level, ask Level, ok bool) {
	if !ob.hasBid || !ob.hasAsk {
		return Level{}, Level{}, false
	}
	return ob.bid, ob.ask, true
}

// MidPrice 返回 (bid+ask)/2；交叉盘口照常计算。
func (ob *OrderBook) MidPrice() (float64, error) {
	bid, ask, ok := ob.Best()
	if !ok {
		return 0, fmt.Errorf("%w: bid set=%t ask set=%t", ErrStaleBook, ob.hasBid, ob.hasAsk)
	}
	return (bid.Price + ask.Price) / 2, nil
}

// Spread 返回 ask-bid，交叉时为负。
func (ob *OrderBook) Spread() (float64, error) {
	bid, ask, ok := ob.Best()
	if !ok {
		return 0, ErrStaleBook
	}
	return ask.Price - bid.Price, nil
}

// Imbalance = (bidSize - askSize) / (bidSize + askSize)，缺失侧按 0 计。
func (ob *OrderBook) Imbalance() float64 {
	var bs, as float64
	if ob.hasBid {
		bs = ob.bid.Size
	}
	if ob.hasAsk {
		as = ob.ask.Size
	}
	if bs+as == 0 {
		return 0
	}
	return (bs - as) / (bs + as)
}

// Reset 清空两侧。
func (ob *OrderBook) Reset() {
	*ob = OrderBook{}
}
