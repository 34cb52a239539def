package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, cfg EngineConfig) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func TestNewEngine_Invalid(t *testing.T) {
	cases := []EngineConfig{
		{},
		{BaseSize: 1, BaseSpread: -0.1},
		{BaseSize: 1, KVol: -1},
		{BaseSize: 1, KInventory: -1},
		{BaseSize: 1, SizeTaper: -1},
		{BaseSize: 1, TickSize: -0.01},
	}
	for _, c := range cases {
		_, err := NewEngine(c)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected invalid config for %+v, got %v", c, err)
		}
	}
}

func TestQuote_Baseline(t *testing.T) {
	e := newTestEngine(t, EngineConfig{BaseSpread: 0.5, KVol: 2, KInventory: 0.1, BaseSize: 1})
	q := e.Quote(100, 0.25, 0)
	assert.Equal(t, Quote{BidPrice: 99, BidSize: 1, AskPrice: 101, AskSize: 1}, q)

	q = e.Quote(100, 0, 5) // skew = -0.5
	assert.Equal(t, 99.0, q.BidPrice)
	assert.Equal(t, 100.0, q.AskPrice)
}

func TestQuote_SpreadMonotoneInVolatility(t *testing.T) {
	e := newTestEngine(t, EngineConfig{BaseSpread: 0.05, KVol: 3, KInventory: 0.01, BaseSize: 1})
	prev := -1.0
	for _, vol := range []float64{0, 0.001, 0.01, 0.5, 1, 2} {
		sp := e.Quote(100, vol, 0).Spread()
		assert.GreaterOrEqual(t, sp, prev)
		prev = sp
	}
	assert.LessOrEqual(t, e.Quote(100, 0, 0).Spread(), e.Quote(100, 1, 0).Spread())
}

func TestQuote_SkewDirection(t *testing.T) {
	e := newTestEngine(t, EngineConfig{BaseSpread: 0.05, KVol: 1, KInventory: 0.02, BaseSize: 1})
	neutral := e.Quote(100, 0.1, 0)
	long := e.Quote(100, 0.1, 3)
	short := e.Quote(100, 0.1, -3)
	// 多头过多，期望降价（bid/ask 下移）
	assert.LessOrEqual(t, long.Mid(), neutral.Mid())
	assert.Less(t, long.BidPrice, neutral.BidPrice)
	// 空头过多，期望抬价
	assert.Greater(t, short.BidPrice, neutral.BidPrice)
	assert.GreaterOrEqual(t, short.Mid(), neutral.Mid())
}

func TestQuote_ClampKeepsBidBelowAsk(t *testing.T) {
	e := newTestEngine(t, EngineConfig{BaseSpread: 0.5, KVol: 1, BaseSize: 1})
	q := e.Quote(100, -10, 0)
	assert.Equal(t, 100.0, q.BidPrice)
	assert.Equal(t, 100.0, q.AskPrice)
	assert.LessOrEqual(t, q.BidPrice, q.AskPrice)
}

func TestQuote_TickRoundingAndTaper(t *testing.T) {
	e := newTestEngine(t, EngineConfig{BaseSpread: 0.3, KInventory: 0, BaseSize: 2, SizeTaper: 1, TickSize: 0.5})
	q := e.Quote(100, 0, 1)
	assert.Equal(t, 99.5, q.BidPrice)
	assert.Equal(t, 100.5, q.AskPrice)
	assert.Equal(t, 1.0, q.BidSize)
	assert.Equal(t, 1.0, q.AskSize)
}

func TestQuoteSeries(t *testing.T) {
	e := newTestEngine(t, EngineConfig{BaseSpread: 0.1, KInventory: 0.1, BaseSize: 0.1})
	snaps := []MarketSnapshot{{Mid: 100}, {Mid: 101}, {Mid: 99}}
	quotes := e.QuoteSeries(snaps, []float64{0, 1})
	require.Len(t, quotes, len(snaps))
	assert.Equal(t, e.Quote(101, 0, 1), quotes[1])
	assert.Equal(t, e.Quote(99, 0, 0), quotes[2])
}
