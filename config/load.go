package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"market-maker-sim/infrastructure/logger"
	"market-maker-sim/market"
	"market-maker-sim/strategy"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env        string           `yaml:"env"`
	Strategy   StrategyParams   `yaml:"strategy"`
	Volatility VolatilityConfig `yaml:"volatility"`
	Feed       FeedConfig       `yaml:"feed"`
	Risk       RiskConfig       `yaml:"risk"`
	Log        logger.Config    `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// StrategyParams 报价参数，可热更新。
type StrategyParams struct {
	BaseSpread float64 `yaml:"baseSpread"` // 波动率为 0 时的半价差
	KVol       float64 `yaml:"kVol"`       // 半价差对波动率的系数
	KInventory float64 `yaml:"kInventory"` // 库存偏移系数
	BaseSize   float64 `yaml:"baseSize"`   // 报价数量
	SizeTaper  float64 `yaml:"sizeTaper"`  // 库存越大数量越小，0 关闭
	TickSize   float64 `yaml:"tickSize"`   // 报价取整，0 关闭
}

// Engine 转换为 strategy.EngineConfig。
func (p StrategyParams) Engine() strategy.EngineConfig {
	return strategy.EngineConfig{
		BaseSpread: p.BaseSpread,
		KVol:       p.KVol,
		KInventory: p.KInventory,
		BaseSize:   p.BaseSize,
		SizeTaper:  p.SizeTaper,
		TickSize:   p.TickSize,
	}
}

type VolatilityConfig struct {
	Window     int          `yaml:"window"`     // 以价格个数计，0 表示全量历史
	HistoryMax int          `yaml:"historyMax"` // 0 表示不裁剪
	Regime     RegimeConfig `yaml:"regime"`
}

type RegimeConfig struct {
	Normal  float64 `yaml:"normal"`
	High    float64 `yaml:"high"`
	Extreme float64 `yaml:"extreme"`
}

func (r RegimeConfig) Thresholds() market.RegimeThresholds {
	return market.RegimeThresholds{Normal: r.Normal, High: r.High, Extreme: r.Extreme}
}

// 行情源类型
const (
	FeedCSV    = "csv"
	FeedRandom = "random"
	FeedWS     = "ws"
)

type FeedConfig struct {
	Kind    string       `yaml:"kind"` // csv / random / ws
	Path    string       `yaml:"path"`
	DelayMs int          `yaml:"delayMs"`
	URL     string       `yaml:"url"`
	Symbol  string       `yaml:"symbol"`
	Random  RandomConfig `yaml:"random"`
}

type RandomConfig struct {
	Seed      uint64  `yaml:"seed"`
	StartMid  float64 `yaml:"startMid"`
	Spread    float64 `yaml:"spread"`
	StepSigma float64 `yaml:"stepSigma"`
	Size      float64 `yaml:"size"`
	Count     int     `yaml:"count"`
}

type RiskConfig struct {
	InitialCapital float64   `yaml:"initialCapital"` // 权益曲线的起点
	Annualization  float64   `yaml:"annualization"`  // Sharpe 年化因子，0 不年化
	EquityEvery    int       `yaml:"equityEvery"`    // 每 N 个 tick 记录一次权益
	DrawdownBands  []float64 `yaml:"drawdownBands"`  // 回撤提示档位（比例）
	MarkoutHorizon int       `yaml:"markoutHorizon"` // 逆向选择观察 tick 数
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// Default 返回一份可直接使用的配置（随机行情，默认策略参数），供命令行工具在没有 YAML 时使用。
func Default() AppConfig {
	cfg := AppConfig{
		Env: "dev",
		Strategy: StrategyParams{
			BaseSpread: 0.5,
			KVol:       2,
			KInventory: 0.1,
			BaseSize:   1,
		},
		Volatility: VolatilityConfig{Window: 20},
		Feed:       FeedConfig{Kind: FeedRandom, Random: RandomConfig{Seed: 1, StepSigma: 0.001, Count: 1000}},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads YAML config from path, fills defaults and applies basic validation.
func Load(path string) (AppConfig, error) {
	cfg, err := parse(path)
	if err != nil {
		return cfg, err
	}
	return cfg, Validate(cfg)
}

// LoadWithEnvOverrides loads config, overrides deployment fields from env vars if present,
// then validates once so a path supplied only via env is accepted.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := parse(path)
	if err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, Validate(cfg)
}

// parse 只做读取、反序列化和默认值填充，不校验。
func parse(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *AppConfig) applyEnv() {
	if v := os.Getenv("MM_FEED_PATH"); v != "" {
		c.Feed.Path = v
	}
	if v := os.Getenv("MM_FEED_URL"); v != "" {
		c.Feed.URL = v
	}
	if v := os.Getenv("MM_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("MM_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *AppConfig) applyDefaults() {
	if c.Feed.Kind == "" {
		c.Feed.Kind = FeedCSV
	}
	if c.Risk.InitialCapital == 0 {
		c.Risk.InitialCapital = 10000
	}
	if c.Risk.EquityEvery == 0 {
		c.Risk.EquityEvery = 1
	}
	if c.Risk.MarkoutHorizon == 0 {
		c.Risk.MarkoutHorizon = 5
	}
	def := logger.DefaultConfig()
	if c.Log.Level == "" {
		c.Log.Level = def.Level
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = def.Outputs
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Format
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "mm"
	}
	if c.Metrics.Subsystem == "" {
		c.Metrics.Subsystem = "sim"
	}
}
