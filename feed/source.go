// Package feed 提供行情输入：CSV 回放、随机游走、Binance bookTicker 以及内存切片。
// 所有 Source 都是单消费者的拉取模型，Stream 负责把拉取转换成 channel 推送。
package feed

import (
	"context"
	"errors"
	"io"
	"time"

	"market-maker-sim/market"
)

// Source 逐条产出 tick；结束时返回 io.EOF。
// 单行数据错误返回包装后的 market.ErrMalformedTick，调用方可以继续调用 Next。
type Source interface {
	Next(ctx context.Context) (market.Tick, error)
}

// Event 是 channel 模式下的一条消息，Err 非空时 Tick 无意义。
type Event struct {
	Tick market.Tick
	Err  error
}

// Clock allows deterministic pacing in tests.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SliceSource 按顺序回放内存中的 tick。
type SliceSource struct {
	ticks []market.Tick
	pos   int
}

func NewSliceSource(ticks ...market.Tick) *SliceSource {
	return &SliceSource{ticks: ticks}
}

func (s *SliceSource) Next(ctx context.Context) (market.Tick, error) {
	if err := ctx.Err(); err != nil {
		return market.Tick{}, err
	}
	if s.pos >= len(s.ticks) {
		return market.Tick{}, io.EOF
	}
	t := s.ticks[s.pos]
	s.pos++
	if t.Seq == 0 {
		t.Seq = uint64(s.pos)
	}
	return t, nil
}

// Stream 把 src 的输出写入 out，结束后关闭 out。
// 行级错误作为 Event 转发并继续；io.EOF 正常结束；其它错误转发后返回。
func Stream(ctx context.Context, src Source, out chan<- Event) error {
	defer close(out)
	for {
		tick, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return err
		}
		ev := Event{Tick: tick, Err: err}
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, market.ErrMalformedTick) {
			return err
		}
	}
}
