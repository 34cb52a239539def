package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"market-maker-sim/config"
	"market-maker-sim/feed"
	"market-maker-sim/infrastructure/alert"
	"market-maker-sim/infrastructure/logger"
	"market-maker-sim/infrastructure/monitor"
	"market-maker-sim/sim"
	"market-maker-sim/strategy"
)

// 配置驱动的做市模拟：行情源（csv/random/ws）-> tick 循环 -> 报告。
// 用法：
//
//	go run ./cmd/sim -config configs/sim.yaml
//
// SIGINT/SIGTERM 在两个 tick 之间停止；修改配置文件中的 strategy 段会在下一个 tick 生效。
func main() {
	cfgPath := flag.String("config", "", "配置文件路径（为空时使用内置默认配置）")
	watch := flag.Bool("watch", true, "监听配置文件并热更新策略参数")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.LoadWithEnvOverrides(*cfgPath)
		if err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer lg.Close()

	var mon *monitor.Monitor
	if cfg.Metrics.Enabled {
		mon = monitor.New(monitor.Config{Namespace: cfg.Metrics.Namespace, Subsystem: cfg.Metrics.Subsystem})
	}

	rc := sim.FromAppConfig(cfg, lg, mon)
	rc.Alerts = alert.NewManager([]alert.Channel{
		alert.NewLogChannel("log", lg),
		alert.NewConsoleChannel("console", os.Stderr),
	}, time.Minute)
	runner, err := sim.BuildRunner(rc)
	if err != nil {
		log.Fatalf("初始化 runner 失败: %v", err)
	}
	src, closeFeed, err := feed.Open(cfg.Feed)
	if err != nil {
		log.Fatalf("打开行情源失败: %v", err)
	}
	defer closeFeed()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := run(ctx, cfg, *cfgPath, *watch, runner, src, lg, mon)
	printReport(rep)
	if err != nil {
		lg.LogError(err, map[string]interface{}{"run_id": rep.RunID})
		_ = lg.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.AppConfig, cfgPath string, watch bool,
	runner *sim.Runner, src feed.Source, lg *logger.Logger, mon *monitor.Monitor) (sim.Report, error) {
	g, gctx := errgroup.WithContext(ctx)
	// 辅助 goroutine（指标、热更新）在 tick 循环结束后一并退出
	auxCtx, stopAux := context.WithCancel(gctx)
	defer stopAux()

	events := make(chan feed.Event, 256)
	g.Go(func() error {
		return ignoreCanceled(feed.Stream(gctx, src, events))
	})

	var rep sim.Report
	g.Go(func() error {
		defer stopAux()
		rep = runner.Consume(gctx, events)
		return ignoreCanceled(rep.Err)
	})

	if mon != nil {
		g.Go(func() error {
			lg.Info("metrics server started", zap.String("addr", cfg.Metrics.Addr))
			return mon.Serve(auxCtx, cfg.Metrics.Addr)
		})
	}

	if watch && cfgPath != "" {
		w := config.Watcher{
			Path: cfgPath,
			OnError: func(err error) {
				lg.LogError(err, map[string]interface{}{"path": cfgPath})
			},
		}
		g.Go(func() error {
			return ignoreCanceled(w.Start(auxCtx, func(next config.AppConfig) {
				eng, err := strategy.NewEngine(next.Strategy.Engine())
				if err != nil {
					lg.LogError(err, map[string]interface{}{"path": cfgPath})
					return
				}
				runner.SetEngine(eng)
				if mon != nil {
					mon.RecordConfigReload()
				}
				lg.LogConfigReload(cfgPath, map[string]interface{}{
					"base_spread": next.Strategy.BaseSpread,
					"k_vol":       next.Strategy.KVol,
					"k_inventory": next.Strategy.KInventory,
					"base_size":   next.Strategy.BaseSize,
				})
			}))
		})
	}

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		lg.Warn("systemd notify failed", zap.Error(err))
	} else if ok {
		lg.Info("systemd notified ready")
	}
	err := g.Wait()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err == nil && ctx.Err() != nil {
		lg.Info("interrupted, stopped between ticks")
	}
	return rep, err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printReport(rep sim.Report) {
	s := rep.Summary
	fmt.Printf("run_id=%s processed=%d skipped=%d %v\n", rep.RunID, rep.Processed, rep.Skipped, rep.SkipReasons)
	if rep.HasLast {
		l := rep.Last
		fmt.Printf("last seq=%d mid=%.6f vol=%.6f regime=%s bid=%.6f ask=%.6f\n",
			l.Seq, l.Mid, l.Volatility, l.Regime, l.Quote.BidPrice, l.Quote.AskPrice)
	}
	fmt.Printf("inventory=%.6f cash=%.6f equity=%.6f fills=%d volume=%.6f\n",
		s.Inventory, s.Cash, s.FinalEquity, s.Fills, s.Volume)
	if s.SharpeOK {
		fmt.Printf("sharpe=%.4f ", s.Sharpe)
	} else {
		fmt.Printf("sharpe=n/a ")
	}
	fmt.Printf("maxDrawdown=%.6f (%.4f%%) adverse=%.2f%%\n",
		s.MaxDrawdown, s.MaxDrawdownPct*100, s.PostTrade.AdverseSelectionRate*100)
	if s.TailOK {
		fmt.Printf("var95=%.4f%% var99=%.4f%% es95=%.4f%% ", s.VaR95*100, s.VaR99*100, s.ExpectedShortfall*100)
	}
	fmt.Printf("volPct=%.2f clustering=%.2f latency p50=%s p95=%s p99=%s\n",
		s.VolPercentile, s.VolClustering, s.Latency.P50, s.Latency.P95, s.Latency.P99)
	if rep.Err != nil {
		fmt.Printf("stopped: %v\n", rep.Err)
	}
}
