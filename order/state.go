package order

import (
	"fmt"
	"strings"
)

// Direction 成交方向（针对本方报价）。
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// Sign 买为 +1，卖为 -1，非法方向为 0。
func (d Direction) Sign() float64 {
	switch d {
	case Buy:
		return 1
	case Sell:
		return -1
	default:
		return 0
	}
}

func (d Direction) Valid() bool { return d == Buy || d == Sell }

// ParseDirection 接受 buy/sell（大小写不敏感）。
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: direction %q", ErrInvalidFill, s)
	}
	return d, nil
}

// Fill 一笔模拟成交记录。
type Fill struct {
	ID        string
	Seq       uint64
	Direction Direction
	Price     float64
	Size      float64
}

// Notional 返回 price*size。
func (f Fill) Notional() float64 { return f.Price * f.Size }
