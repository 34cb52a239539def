package feed

import (
	"fmt"
	"time"

	"market-maker-sim/config"
)

// Open 按配置构造 Source；返回的 close 函数总是非空。
func Open(cfg config.FeedConfig) (Source, func() error, error) {
	delay := time.Duration(cfg.DelayMs) * time.Millisecond
	noop := func() error { return nil }
	switch cfg.Kind {
	case config.FeedCSV:
		src, err := OpenCSV(cfg.Path, delay)
		if err != nil {
			return nil, noop, err
		}
		return src, src.Close, nil
	case config.FeedRandom:
		r := cfg.Random
		return NewRandomWalkSource(RandomWalkConfig{
			Seed:      r.Seed,
			StartMid:  r.StartMid,
			Spread:    r.Spread,
			StepSigma: r.StepSigma,
			Size:      r.Size,
			Count:     r.Count,
			Delay:     delay,
		}), noop, nil
	case config.FeedWS:
		src := NewWSSource(cfg.Symbol)
		if cfg.URL != "" {
			src.BaseEndpoint = cfg.URL
		}
		return src, src.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown feed kind %q", cfg.Kind)
	}
}
