package sim

import (
	"market-maker-sim/config"
	"market-maker-sim/infrastructure/logger"
	"market-maker-sim/infrastructure/monitor"
	"market-maker-sim/strategy"
)

// RunnerConfig 描述 Runner 的全部参数。
type RunnerConfig struct {
	Strategy strategy.EngineConfig
	Options
}

// BuildRunner 基于配置组装 Runner（使用内存组件，适合离线/仿真）。
func BuildRunner(cfg RunnerConfig) (*Runner, error) {
	engine, err := strategy.NewEngine(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	return NewRunner(engine, cfg.Options), nil
}

// FromAppConfig 把 YAML 配置映射为 RunnerConfig。
func FromAppConfig(cfg config.AppConfig, log *logger.Logger, mon *monitor.Monitor) RunnerConfig {
	return RunnerConfig{
		Strategy: cfg.Strategy.Engine(),
		Options: Options{
			VolWindow:      cfg.Volatility.Window,
			HistoryMax:     cfg.Volatility.HistoryMax,
			InitialCapital: cfg.Risk.InitialCapital,
			EquityEvery:    cfg.Risk.EquityEvery,
			Annualization:  cfg.Risk.Annualization,
			DrawdownBands:  cfg.Risk.DrawdownBands,
			Regime:         cfg.Volatility.Regime.Thresholds(),
			MarkoutHorizon: cfg.Risk.MarkoutHorizon,
			Logger:         log,
			Monitor:        mon,
		},
	}
}
