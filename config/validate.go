package config

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalid 用于参数验证错误。
var ErrInvalid = errors.New("invalid config")

// Validate ensures required fields are present and ranges make sense.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return fmt.Errorf("%w: env is required", ErrInvalid)
	}
	if err := cfg.Strategy.Engine().Validate(); err != nil {
		return fmt.Errorf("%w: strategy: %w", ErrInvalid, err)
	}
	if cfg.Volatility.Window < 0 || cfg.Volatility.HistoryMax < 0 {
		return fmt.Errorf("%w: volatility.window/historyMax must be >= 0", ErrInvalid)
	}
	if cfg.Volatility.HistoryMax > 0 && cfg.Volatility.Window > cfg.Volatility.HistoryMax {
		return fmt.Errorf("%w: volatility.window must be <= historyMax", ErrInvalid)
	}
	r := cfg.Volatility.Regime
	if r != (RegimeConfig{}) && !(r.Normal < r.High && r.High < r.Extreme) {
		return fmt.Errorf("%w: volatility.regime thresholds must be increasing", ErrInvalid)
	}
	switch cfg.Feed.Kind {
	case FeedCSV:
		if cfg.Feed.Path == "" {
			return fmt.Errorf("%w: feed.path is required for csv feed (or MM_FEED_PATH)", ErrInvalid)
		}
	case FeedWS:
		if cfg.Feed.Symbol == "" {
			return fmt.Errorf("%w: feed.symbol is required for ws feed", ErrInvalid)
		}
	case FeedRandom:
		if cfg.Feed.Random.Count < 0 || cfg.Feed.Random.StepSigma < 0 {
			return fmt.Errorf("%w: feed.random count/stepSigma must be >= 0", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown feed.kind %q", ErrInvalid, cfg.Feed.Kind)
	}
	if cfg.Feed.DelayMs < 0 {
		return fmt.Errorf("%w: feed.delayMs must be >= 0", ErrInvalid)
	}
	if cfg.Risk.InitialCapital < 0 || cfg.Risk.Annualization < 0 {
		return fmt.Errorf("%w: risk.initialCapital/annualization must be >= 0", ErrInvalid)
	}
	if cfg.Risk.EquityEvery < 0 || cfg.Risk.MarkoutHorizon < 0 {
		return fmt.Errorf("%w: risk.equityEvery/markoutHorizon must be >= 0", ErrInvalid)
	}
	for _, b := range cfg.Risk.DrawdownBands {
		if b <= 0 || b >= 1 {
			return fmt.Errorf("%w: risk.drawdownBands must be in (0,1), got %v", ErrInvalid, b)
		}
	}
	if !sort.Float64sAreSorted(cfg.Risk.DrawdownBands) {
		return fmt.Errorf("%w: risk.drawdownBands must be ascending", ErrInvalid)
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return fmt.Errorf("%w: metrics.addr is required when metrics enabled", ErrInvalid)
	}
	return nil
}
