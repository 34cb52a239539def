package strategy

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidConfig 策略参数非法，属于致命错误。
var ErrInvalidConfig = errors.New("invalid strategy config")

// Quote 策略每个 tick 重新生成的双边报价，不持久化。
type Quote struct {
	BidPrice float64
	BidSize  float64
	AskPrice float64
	AskSize  float64
}

// Spread 返回 ask-bid。
func (q Quote) Spread() float64 { return q.AskPrice - q.BidPrice }

// Mid 返回报价中点。
func (q Quote) Mid() float64 { return (q.BidPrice + q.AskPrice) / 2 }

// EngineConfig 报价参数。
type EngineConfig struct {
	BaseSpread float64 // 波动率为 0 时的最小半价差（绝对价格）
	KVol       float64 // 半价差对波动率的敏感度
	KInventory float64 // 价格偏移对库存的敏感度
	BaseSize   float64 // 默认报价数量
	SizeTaper  float64 // >0 时数量按 1/(1+taper*|inv|) 递减
	TickSize   float64 // >0 时 bid 向下、ask 向上取整到 tick
}

// Validate 检查参数范围。
func (c EngineConfig) Validate() error {
	switch {
	case !(c.BaseSize > 0):
		return fmt.Errorf("%w: baseSize must be > 0", ErrInvalidConfig)
	case !(c.BaseSpread >= 0):
		return fmt.Errorf("%w: baseSpread must be >= 0", ErrInvalidConfig)
	case !(c.KVol >= 0):
		return fmt.Errorf("%w: kVol must be >= 0", ErrInvalidConfig)
	case !(c.KInventory >= 0):
		return fmt.Errorf("%w: kInventory must be >= 0", ErrInvalidConfig)
	case !(c.SizeTaper >= 0):
		return fmt.Errorf("%w: sizeTaper must be >= 0", ErrInvalidConfig)
	case !(c.TickSize >= 0):
		return fmt.Errorf("%w: tickSize must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// MarketSnapshot 提供 mid 价、波动率与时间。
type MarketSnapshot struct {
	Mid        float64
	Volatility float64
	Ts         time.Time
}

// Engine 根据 (mid, 波动率, 库存) 生成报价；纯函数，无内部状态。
type Engine struct {
	cfg EngineConfig
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) Config() EngineConfig { return e.cfg }

// Quote 生成库存偏移的双边报价：
//
//	skew = -kInventory*inventory
//	half = max(0, baseSpread + kVol*vol)
//	bid  = mid + skew - half
//	ask  = mid + skew + half
func (e *Engine) Quote(mid, volatility, inventory float64) Quote {
	skew := InventorySkew(e.cfg.KInventory, inventory)
	half := HalfSpread(e.cfg.BaseSpread, e.cfg.KVol, volatility)
	bid := mid + skew - half
	ask := mid + skew + half
	if e.cfg.TickSize > 0 {
		bid = math.Floor(bid/e.cfg.TickSize) * e.cfg.TickSize
		ask = math.Ceil(ask/e.cfg.TickSize) * e.cfg.TickSize
	}
	size := TaperSize(e.cfg.BaseSize, e.cfg.SizeTaper, inventory)
	return Quote{
		BidPrice: bid,
		BidSize:  size,
		AskPrice: ask,
		AskSize:  size,
	}
}

// QuoteSeries 用于离线调参：输入 mid 序列和库存序列，输出报价曲线。
// invs 长度不足时按 0 库存处理。
func (e *Engine) QuoteSeries(snaps []MarketSnapshot, invs []float64) []Quote {
	res := make([]Quote, 0, len(snaps))
	for i, s := range snaps {
		inv := 0.0
		if i < len(invs) {
			inv = invs[i]
		}
		res = append(res, e.Quote(s.Mid, s.Volatility, inv))
	}
	return res
}
