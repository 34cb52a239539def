package feed

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"market-maker-sim/market"
)

// RandomWalkConfig 合成行情参数。
type RandomWalkConfig struct {
	Seed      uint64
	StartMid  float64
	Spread    float64 // 固定 bid/ask 间距
	StepSigma float64 // 每 tick 对数收益的标准差
	Size      float64
	Count     int // 0 表示无限
	Delay     time.Duration
}

// RandomWalkSource 几何随机游走中间价，同一 Seed 产出相同序列。
type RandomWalkSource struct {
	cfg   RandomWalkConfig
	rng   *rand.Rand
	clock Clock
	mid   float64
	n     int
}

func NewRandomWalkSource(cfg RandomWalkConfig) *RandomWalkSource {
	if cfg.StartMid <= 0 {
		cfg.StartMid = 100
	}
	if cfg.Spread <= 0 {
		cfg.Spread = 0.02 * cfg.StartMid / 100
	}
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	return &RandomWalkSource{
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		clock: realClock{},
		mid:   cfg.StartMid,
	}
}

// WithClock swaps the pacing clock.
func (s *RandomWalkSource) WithClock(c Clock) *RandomWalkSource {
	if c != nil {
		s.clock = c
	}
	return s
}

func (s *RandomWalkSource) Next(ctx context.Context) (market.Tick, error) {
	if err := ctx.Err(); err != nil {
		return market.Tick{}, err
	}
	if s.cfg.Count > 0 && s.n >= s.cfg.Count {
		return market.Tick{}, io.EOF
	}
	if err := s.clock.Sleep(ctx, s.cfg.Delay); err != nil {
		return market.Tick{}, err
	}
	if s.n > 0 {
		s.mid *= math.Exp(s.cfg.StepSigma * s.rng.NormFloat64())
	}
	s.n++
	half := s.cfg.Spread / 2
	return market.Tick{
		BidPrice: s.mid - half,
		BidSize:  s.cfg.Size,
		AskPrice: s.mid + half,
		AskSize:  s.cfg.Size,
		Seq:      uint64(s.n),
		Ts:       time.Now(),
	}, nil
}
