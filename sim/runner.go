package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"market-maker-sim/feed"
	"market-maker-sim/infrastructure/logger"
	"market-maker-sim/infrastructure/monitor"
	"market-maker-sim/market"
	"market-maker-sim/order"
	"market-maker-sim/posttrade"
	"market-maker-sim/risk"
	"market-maker-sim/strategy"
)

// 跳过原因，同时用作指标 label。
const (
	ReasonMalformed = "malformed_tick"
	ReasonStale     = "stale_book"
)

// IsRecoverable 判断错误是否只需跳过当前 tick。
// 脏数据和单边盘口可恢复；非法成交、非法参数等说明上游有 bug，需要终止。
func IsRecoverable(err error) bool {
	return errors.Is(err, market.ErrMalformedTick) || errors.Is(err, market.ErrStaleBook)
}

func skipReason(err error) string {
	if errors.Is(err, market.ErrStaleBook) {
		return ReasonStale
	}
	return ReasonMalformed
}

// Snapshot 一个 tick 处理完成后的只读视图。
type Snapshot struct {
	Seq        uint64
	Mid        float64
	Volatility float64
	Regime     market.Regime
	Quote      strategy.Quote
	Inventory  float64
	Cash       float64
	Equity     float64
	Drawdown   float64
}

// Options 控制 Runner 的可选行为。
type Options struct {
	VolWindow      int     // 波动率窗口（价格个数），0 为全量历史
	HistoryMax     int     // 历史上限，0 不裁剪
	InitialCapital float64 // 权益 = InitialCapital + cash + inventory*mid
	EquityEvery    int     // 每 N 个 tick 记录一次权益，<=1 为每个 tick
	Annualization  float64 // Sharpe 年化因子
	DrawdownBands  []float64
	Regime         market.RegimeThresholds
	MarkoutHorizon int

	Logger  *logger.Logger
	Monitor *monitor.Monitor // 可为空
	Alerts  Alerter          // 可为空
}

// Alerter 接收回撤跨档和致命错误通知，*alert.Manager 满足该接口。
type Alerter interface {
	SendWarning(message string, fields map[string]interface{}) error
	SendCritical(message string, fields map[string]interface{}) error
}

// Runner 单线程 tick 循环：盘口 -> 中间价 -> 历史 -> 波动率 -> 报价 -> 成交 -> 记账。
// 核心组件由 Runner 独占，除 SetEngine 外不支持并发调用。
type Runner struct {
	runID   string
	opts    Options
	log     *logger.Logger
	mon     *monitor.Monitor
	book    *market.OrderBook
	history *market.PriceHistory
	vol     *market.VolatilityEstimator
	engine  *strategy.Engine
	next    atomic.Pointer[strategy.Engine]
	exec    *order.Executor
	post    *posttrade.Analyzer
	dd      *risk.DrawdownTracker
	latency *latencyWindow

	equity    []float64
	seen      uint64
	processed int
	skipped   int
	reasons   map[string]int
	last      Snapshot
	hasLast   bool
}

// NewRunner 组装 Runner；engine 不能为空。
func NewRunner(engine *strategy.Engine, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.EquityEvery <= 0 {
		opts.EquityEvery = 1
	}
	history := market.NewPriceHistory(opts.HistoryMax)
	return &Runner{
		runID:   uuid.NewString(),
		opts:    opts,
		log:     opts.Logger,
		mon:     opts.Monitor,
		book:    market.NewOrderBook(),
		history: history,
		vol:     market.NewVolatilityEstimator(opts.VolWindow, history),
		engine:  engine,
		exec:    order.NewExecutor(),
		post:    posttrade.NewAnalyzer(opts.MarkoutHorizon),
		dd:      risk.NewDrawdownTracker(opts.DrawdownBands),
		latency: newLatencyWindow(latencyWindowSize),
		reasons: make(map[string]int),
	}
}

func (r *Runner) RunID() string { return r.runID }

// SetEngine 替换报价引擎，在下一个 tick 开始前生效；可从其它 goroutine 调用。
func (r *Runner) SetEngine(e *strategy.Engine) {
	if e != nil {
		r.next.Store(e)
	}
}

// Engine 返回当前生效的引擎。
func (r *Runner) Engine() *strategy.Engine { return r.engine }

func (r *Runner) Book() *market.OrderBook { return r.book }

func (r *Runner) History() *market.PriceHistory { return r.history }

func (r *Runner) Executor() *order.Executor { return r.exec }

// Snapshot 返回最近一次完整处理的 tick 视图。
func (r *Runner) Snapshot() (Snapshot, bool) { return r.last, r.hasLast }

// EquityCurve 返回已记录的权益曲线（只读）。
func (r *Runner) EquityCurve() []float64 { return r.equity }

// Step 按固定顺序处理一个 tick。
// 返回的错误可用 IsRecoverable 分类。除单边盘口外，出错的 tick 不改变任何状态：
// 盘口、历史和账户在两笔成交都校验通过后才一起提交。
func (r *Runner) Step(tick market.Tick) (Snapshot, error) {
	start := time.Now()
	if e := r.next.Swap(nil); e != nil {
		r.engine = e
	}
	r.seen++
	seq := r.seqOf(tick)

	if err := tick.Validate(); err != nil {
		return Snapshot{}, err
	}
	book := *r.book
	book.UpdateOrder(tick.BidPrice, tick.BidSize, market.SideBid)
	book.UpdateOrder(tick.AskPrice, tick.AskSize, market.SideAsk)
	mid, err := book.MidPrice()
	if err != nil {
		// 单边盘口照常写入，等待另一侧补齐
		*r.book = book
		return Snapshot{}, err
	}
	if math.IsNaN(mid) || math.IsInf(mid, 0) {
		return Snapshot{}, fmt.Errorf("%w: mid %v is not finite", market.ErrMalformedTick, mid)
	}
	vol := r.vol.Peek(mid)
	inv := r.exec.Inventory()
	q := r.engine.Quote(mid, vol, inv)

	// 两笔成交要么都执行要么都不执行
	if err := order.ValidateFill(q.BidPrice, q.BidSize, order.Buy); err != nil {
		return Snapshot{}, err
	}
	if err := order.ValidateFill(q.AskPrice, q.AskSize, order.Sell); err != nil {
		return Snapshot{}, err
	}
	*r.book = book
	r.history.Append(mid)

	// 先用新 mid 评估上一批成交，再登记本次成交
	r.post.OnMid(mid)
	for _, leg := range []struct {
		price, size float64
		dir         order.Direction
	}{
		{q.BidPrice, q.BidSize, order.Buy},
		{q.AskPrice, q.AskSize, order.Sell},
	} {
		f, err := r.exec.FillOrder(leg.price, leg.size, leg.dir)
		if err != nil {
			return Snapshot{}, err
		}
		r.post.OnFill(f)
		r.log.LogFill(f.ID, string(f.Direction), f.Price, f.Size)
		if r.mon != nil {
			r.mon.RecordFill(string(f.Direction), f.Size)
		}
	}

	acc := r.exec.Account()
	equity := r.opts.InitialCapital + acc.Equity(mid)
	drawdown, band, crossed := r.dd.Observe(equity)
	if crossed {
		fields := map[string]interface{}{
			"band":     band,
			"drawdown": drawdown,
			"peak":     r.dd.Peak(),
			"seq":      seq,
		}
		if r.opts.Alerts != nil {
			_ = r.opts.Alerts.SendWarning("drawdown band crossed", fields)
		}
		r.log.LogRisk("drawdown_band", fields)
	}
	if r.processed%r.opts.EquityEvery == 0 {
		r.equity = append(r.equity, equity)
	}
	r.processed++

	snap := Snapshot{
		Seq:        seq,
		Mid:        mid,
		Volatility: vol,
		Regime:     market.ClassifyRegime(vol, r.opts.Regime),
		Quote:      q,
		Inventory:  acc.Inventory,
		Cash:       acc.Cash,
		Equity:     equity,
		Drawdown:   drawdown,
	}
	r.last, r.hasLast = snap, true

	r.log.LogTick(map[string]interface{}{
		"seq":        seq,
		"mid":        mid,
		"volatility": vol,
		"bid":        q.BidPrice,
		"ask":        q.AskPrice,
		"inventory":  acc.Inventory,
		"cash":       acc.Cash,
	})
	elapsed := time.Since(start)
	r.latency.add(elapsed)
	if r.mon != nil {
		r.mon.RecordTickProcessed(elapsed.Seconds())
		r.mon.UpdateMarket(mid, vol, int(snap.Regime))
		r.mon.UpdateQuote(q.BidPrice, q.AskPrice)
		r.mon.UpdateAccount(acc.Inventory, acc.Cash, equity)
		r.mon.UpdateDrawdown(drawdown)
		r.mon.UpdateAdverseSelection(r.post.Stats().AdverseSelectionRate)
	}
	return snap, nil
}

// Report 一次运行的结果。Err 为导致终止的致命错误或 ctx 错误，正常结束时为 nil。
type Report struct {
	RunID       string
	Processed   int
	Skipped     int
	SkipReasons map[string]int
	Last        Snapshot
	HasLast     bool
	Summary     Summary
	Err         error
}

// Run 逐个拉取 tick 直到 io.EOF、ctx 取消或遇到致命错误。
func (r *Runner) Run(ctx context.Context, src feed.Source) Report {
	for {
		if err := ctx.Err(); err != nil {
			return r.finish(err)
		}
		tick, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return r.finish(nil)
		}
		if err != nil {
			if isContextErr(err) {
				return r.finish(err)
			}
			if err := r.sourceError(tick, err); err != nil {
				return r.finish(err)
			}
			continue
		}
		if err := r.handle(tick); err != nil {
			return r.finish(err)
		}
	}
}

// Consume 是 Run 的 channel 版本：生产者关闭 channel 表示结束。
func (r *Runner) Consume(ctx context.Context, events <-chan feed.Event) Report {
	for {
		select {
		case <-ctx.Done():
			return r.finish(ctx.Err())
		case ev, ok := <-events:
			if !ok {
				return r.finish(nil)
			}
			if ev.Err != nil {
				if err := r.sourceError(ev.Tick, ev.Err); err != nil {
					return r.finish(err)
				}
				continue
			}
			if err := r.handle(ev.Tick); err != nil {
				return r.finish(err)
			}
		}
	}
}

// seqOf 优先使用行情源的序号，缺失时退回 Runner 自己的计数。
func (r *Runner) seqOf(tick market.Tick) uint64 {
	if tick.Seq != 0 {
		return tick.Seq
	}
	return r.seen
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// sourceError 处理行情源返回的错误：行级错误跳过，其它错误终止运行。
func (r *Runner) sourceError(tick market.Tick, err error) error {
	r.seen++
	seq := r.seqOf(tick)
	if IsRecoverable(err) {
		r.skip(seq, err)
		return nil
	}
	r.halt(seq, err)
	return err
}

func (r *Runner) handle(tick market.Tick) error {
	_, err := r.Step(tick)
	if err == nil {
		return nil
	}
	seq := r.seqOf(tick)
	if IsRecoverable(err) {
		r.skip(seq, err)
		return nil
	}
	r.halt(seq, err)
	return err
}

// halt 记录致命错误并发送告警。
func (r *Runner) halt(seq uint64, err error) {
	r.log.LogError(err, map[string]interface{}{"seq": seq, "run_id": r.runID})
	if r.opts.Alerts != nil {
		_ = r.opts.Alerts.SendCritical("simulation halted", map[string]interface{}{
			"seq":    seq,
			"run_id": r.runID,
			"error":  err.Error(),
		})
	}
}

func (r *Runner) skip(seq uint64, err error) {
	reason := skipReason(err)
	r.skipped++
	r.reasons[reason]++
	r.log.LogSkip(seq, reason, err)
	if r.mon != nil {
		r.mon.RecordTickSkipped(reason)
	}
}

func (r *Runner) finish(err error) Report {
	reasons := make(map[string]int, len(r.reasons))
	for k, v := range r.reasons {
		reasons[k] = v
	}
	rep := Report{
		RunID:       r.runID,
		Processed:   r.processed,
		Skipped:     r.skipped,
		SkipReasons: reasons,
		Last:        r.last,
		HasLast:     r.hasLast,
		Summary:     r.Summary(),
		Err:         err,
	}
	fields := rep.Summary.Fields()
	if err != nil {
		fields["error"] = err.Error()
	}
	r.log.LogSummary(fields)
	return rep
}
