package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrMalformedTick 行情字段缺失或非法，该 tick 应被跳过。
	ErrMalformedTick = errors.New("malformed tick")
	// ErrStaleBook 任一侧未设置时请求 mid。
	ErrStaleBook = errors.New("stale book")
)

// Side 表示盘口方向。
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// Tick 是一次行情更新：单一聚合的买一/卖一报价。
type Tick struct {
	BidPrice float64
	BidSize  float64
	AskPrice float64
	AskSize  float64

	// 可选字段，由 feed 填充，仅用于日志/回放。
	Seq uint64
	Ts  time.Time
}

// Validate 检查字段合法性；size 为 0 合法（表示清空该侧）。
func (t Tick) Validate() error {
	fields := [...]struct {
		name  string
		value float64
	}{
		{"bid_price", t.BidPrice},
		{"bid_size", t.BidSize},
		{"ask_price", t.AskPrice},
		{"ask_size", t.AskSize},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrMalformedTick, f.name)
		}
	}
	if err := validateSide("bid", t.BidPrice, t.BidSize); err != nil {
		return err
	}
	return validateSide("ask", t.AskPrice, t.AskSize)
}

func validateSide(name string, price, size float64) error {
	if size < 0 {
		return fmt.Errorf("%w: %s_size %.8f < 0", ErrMalformedTick, name, size)
	}
	if size > 0 && price <= 0 {
		return fmt.Errorf("%w: %s_price %.8f must be > 0 when size > 0", ErrMalformedTick, name, price)
	}
	return nil
}
