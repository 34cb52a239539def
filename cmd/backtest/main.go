package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"market-maker-sim/config"
	"market-maker-sim/feed"
	"market-maker-sim/infrastructure/logger"
	"market-maker-sim/sim"
)

// 多文件回测：每个 CSV 独立跑一遍 tick 循环，输出汇总。
// 用法：
//
//	go run ./cmd/backtest -config configs/sim.yaml -files data/a.csv,data/b.csv -out summaries.csv
func main() {
	cfgPath := flag.String("config", "", "配置文件路径（为空时使用内置默认配置）")
	files := flag.String("files", "", "CSV 文件列表，逗号分隔")
	outPath := flag.String("out", "", "若指定则写入 CSV 汇总")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.LoadWithEnvOverrides(*cfgPath)
		if err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
	}
	paths := parseFiles(*files)
	if len(paths) == 0 {
		log.Fatal("未指定任何 CSV 文件")
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer lg.Close()

	var rows []row
	for _, path := range paths {
		rep, err := runFile(context.Background(), cfg, path, lg)
		if err != nil {
			log.Printf("%s 回测失败: %v", path, err)
			continue
		}
		if rep.Err != nil {
			log.Printf("%s 提前终止: %v", path, rep.Err)
		}
		s := rep.Summary
		log.Printf("file=%s processed=%d skipped=%d inventory=%.4f cash=%.4f maxDD=%.4f",
			path, s.Processed, s.Skipped, s.Inventory, s.Cash, s.MaxDrawdown)
		rows = append(rows, row{File: filepath.Base(path), Report: rep})
	}

	if *outPath != "" {
		if err := writeSummaryCSV(*outPath, rows); err != nil {
			log.Printf("写入汇总 CSV 失败: %v", err)
		} else {
			log.Printf("已写入汇总: %s", *outPath)
		}
	}
}

type row struct {
	File   string
	Report sim.Report
}

func runFile(ctx context.Context, cfg config.AppConfig, path string, lg *logger.Logger) (sim.Report, error) {
	runner, err := sim.BuildRunner(sim.FromAppConfig(cfg, lg.WithFields(map[string]interface{}{"file": path}), nil))
	if err != nil {
		return sim.Report{}, err
	}
	src, err := feed.OpenCSV(path, 0)
	if err != nil {
		return sim.Report{}, err
	}
	defer src.Close()
	return runner.Run(ctx, src), nil
}

func parseFiles(arg string) []string {
	var out []string
	for _, p := range strings.Split(arg, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeSummaryCSV(path string, rows []row) error {
	if len(rows) == 0 {
		return fmt.Errorf("no summary data")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return writeSummary(f, rows)
}

// writeSummary 写入并关闭 out；写入或关闭失败都会返回错误。
func writeSummary(out io.WriteCloser, rows []row) (err error) {
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	w := csv.NewWriter(out)
	header := []string{"file", "runId", "processed", "skipped", "fills", "inventory", "cash", "equity",
		"sharpe", "maxDrawdown", "maxDrawdownPct", "adverseRate", "var95", "es95", "latencyP99Us", "error"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		s := r.Report.Summary
		sharpe := ""
		if s.SharpeOK {
			sharpe = fmt.Sprintf("%.6f", s.Sharpe)
		}
		var95, es95 := "", ""
		if s.TailOK {
			var95 = fmt.Sprintf("%.6f", s.VaR95)
			es95 = fmt.Sprintf("%.6f", s.ExpectedShortfall)
		}
		errText := ""
		if r.Report.Err != nil {
			errText = r.Report.Err.Error()
		}
		record := []string{
			r.File,
			r.Report.RunID,
			strconv.Itoa(s.Processed),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Fills),
			fmt.Sprintf("%.6f", s.Inventory),
			fmt.Sprintf("%.6f", s.Cash),
			fmt.Sprintf("%.6f", s.FinalEquity),
			sharpe,
			fmt.Sprintf("%.6f", s.MaxDrawdown),
			fmt.Sprintf("%.6f", s.MaxDrawdownPct),
			fmt.Sprintf("%.6f", s.PostTrade.AdverseSelectionRate),
			var95,
			es95,
			strconv.FormatInt(s.Latency.P99.Microseconds(), 10),
			errText,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
