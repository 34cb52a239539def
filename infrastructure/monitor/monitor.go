package monitor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器
type Monitor struct {
	registry *prometheus.Registry

	// tick 指标
	ticksProcessed prometheus.Counter
	ticksSkipped   *prometheus.CounterVec
	tickLatency    prometheus.Histogram

	// 成交指标
	fills        *prometheus.CounterVec
	tradedVolume prometheus.Counter

	// 账户指标
	inventory prometheus.Gauge
	cash      prometheus.Gauge
	equity    prometheus.Gauge
	drawdown  prometheus.Gauge

	// 市场/报价指标
	midPrice     prometheus.Gauge
	volatility   prometheus.Gauge
	regime       prometheus.Gauge
	bidPrice     prometheus.Gauge
	askPrice     prometheus.Gauge
	quotedSpread prometheus.Gauge

	adverseRate   prometheus.Gauge
	configReloads prometheus.Counter
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "mm",
		Subsystem: "sim",
	}
}

// New 创建新的Monitor实例，指标注册在私有 registry 上
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem, Name: name, Help: help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace, Subsystem: cfg.Subsystem, Name: name, Help: help,
		})
	}

	return &Monitor{
		registry: reg,

		ticksProcessed: counter("ticks_processed_total", "完整处理的 tick 数"),
		ticksSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ticks_skipped_total",
			Help:      "被跳过的 tick 数（按原因）",
		}, []string{"reason"}),
		tickLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "tick_latency_seconds",
			Help:      "单个 tick 处理耗时（秒）",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),

		fills: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "fills_total",
			Help:      "模拟成交笔数",
		}, []string{"side"}),
		tradedVolume: counter("traded_volume_total", "累计成交量"),

		inventory: gauge("inventory", "当前库存"),
		cash:      gauge("cash", "当前现金"),
		equity:    gauge("equity", "按中间价估值的权益"),
		drawdown:  gauge("drawdown", "当前绝对回撤"),

		midPrice:     gauge("mid_price", "中间价"),
		volatility:   gauge("volatility", "滚动波动率"),
		regime:       gauge("volatility_regime", "波动率区间 0=low 1=normal 2=high 3=extreme"),
		bidPrice:     gauge("quote_bid_price", "报价买价"),
		askPrice:     gauge("quote_ask_price", "报价卖价"),
		quotedSpread: gauge("quoted_spread", "报价价差"),

		adverseRate:   gauge("adverse_selection_rate", "逆向选择比例"),
		configReloads: counter("config_reloads_total", "配置热更新次数"),
	}
}

// tick 相关方法
func (m *Monitor) RecordTickProcessed(seconds float64) {
	m.ticksProcessed.Inc()
	m.tickLatency.Observe(seconds)
}

func (m *Monitor) RecordTickSkipped(reason string) {
	m.ticksSkipped.WithLabelValues(reason).Inc()
}

// 成交相关方法
func (m *Monitor) RecordFill(side string, size float64) {
	m.fills.WithLabelValues(side).Inc()
	m.tradedVolume.Add(size)
}

// 账户相关方法
func (m *Monitor) UpdateAccount(inventory, cash, equity float64) {
	m.inventory.Set(inventory)
	m.cash.Set(cash)
	m.equity.Set(equity)
}

func (m *Monitor) UpdateDrawdown(value float64) {
	m.drawdown.Set(value)
}

// 市场相关方法
func (m *Monitor) UpdateMarket(mid, vol float64, regime int) {
	m.midPrice.Set(mid)
	m.volatility.Set(vol)
	m.regime.Set(float64(regime))
}

func (m *Monitor) UpdateQuote(bid, ask float64) {
	m.bidPrice.Set(bid)
	m.askPrice.Set(ask)
	m.quotedSpread.Set(ask - bid)
}

func (m *Monitor) UpdateAdverseSelection(rate float64) {
	m.adverseRate.Set(rate)
}

func (m *Monitor) RecordConfigReload() {
	m.configReloads.Inc()
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// Serve 在 addr 上暴露 /metrics，ctx 取消后优雅关闭。
func (m *Monitor) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
