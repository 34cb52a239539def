package feed

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-maker-sim/config"
	"market-maker-sim/market"
)

type fakeClock struct {
	slept []time.Duration
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	f.slept = append(f.slept, d)
	return ctx.Err()
}

func drain(t *testing.T, src Source) (ticks []market.Tick, errs []error) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		tick, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ticks = append(ticks, tick)
	}
	t.Fatal("source did not terminate")
	return
}

func TestCSVSource_ColumnOrderAndExtras(t *testing.T) {
	data := "ts,ask_size,ask_price,bid_size,bid_price\n" +
		"1,10,101,10,99\n" +
		"2,10,102,10,100\n"
	ticks, errs := drain(t, NewCSVSource(strings.NewReader(data), 0))
	require.Empty(t, errs)
	require.Len(t, ticks, 2)
	assert.Equal(t, market.Tick{BidPrice: 99, BidSize: 10, AskPrice: 101, AskSize: 10, Seq: 1}, ticks[0])
	assert.Equal(t, 100.0, ticks[1].BidPrice)
	assert.Equal(t, uint64(2), ticks[1].Seq)
}

func TestCSVSource_MalformedRowsAreSkippable(t *testing.T) {
	data := "bid_price,bid_size,ask_price,ask_size\n" +
		"99,10,101,10\n" +
		"abc,10,101,10\n" +
		"99,10\n" +
		"100,10,102,10\n"
	ticks, errs := drain(t, NewCSVSource(strings.NewReader(data), 0))
	require.Len(t, ticks, 2)
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, market.ErrMalformedTick)
	}
	assert.Contains(t, errs[0].Error(), "row 2")
}

func TestCSVSource_MissingColumn(t *testing.T) {
	src := NewCSVSource(strings.NewReader("bid_price,bid_size,ask_price\n1,1,1\n"), 0)
	_, err := src.Next(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, market.ErrMalformedTick)
	assert.Contains(t, err.Error(), "ask_size")
}

func TestCSVSource_EmptyInput(t *testing.T) {
	_, err := NewCSVSource(strings.NewReader(""), 0).Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestCSVSource_Pacing(t *testing.T) {
	clock := &fakeClock{}
	src := NewCSVSource(strings.NewReader("bid_price,bid_size,ask_price,ask_size\n99,1,101,1\n"), 50*time.Millisecond).WithClock(clock)
	_, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{50 * time.Millisecond}, clock.slept)
}

func TestCSVSource_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCSVSource(strings.NewReader("bid_price,bid_size,ask_price,ask_size\n"), 0).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRandomWalkSource_Deterministic(t *testing.T) {
	cfg := RandomWalkConfig{Seed: 7, StartMid: 100, Spread: 0.2, StepSigma: 0.001, Size: 2, Count: 50}
	a, errsA := drain(t, NewRandomWalkSource(cfg))
	b, errsB := drain(t, NewRandomWalkSource(cfg))
	require.Empty(t, errsA)
	require.Empty(t, errsB)
	require.Len(t, a, 50)
	for i := range a {
		assert.Equal(t, a[i].BidPrice, b[i].BidPrice)
		assert.InDelta(t, 0.2, a[i].AskPrice-a[i].BidPrice, 1e-9)
		assert.NoError(t, a[i].Validate())
	}
	assert.InDelta(t, 100.0, (a[0].BidPrice+a[0].AskPrice)/2, 1e-9)
}

func TestSliceSourceAndStream(t *testing.T) {
	src := NewSliceSource(
		market.Tick{BidPrice: 99, BidSize: 1, AskPrice: 101, AskSize: 1},
		market.Tick{BidPrice: 100, BidSize: 1, AskPrice: 102, AskSize: 1},
	)
	out := make(chan Event)
	done := make(chan error, 1)
	go func() { done <- Stream(context.Background(), src, out) }()

	var got []Event
	for ev := range out {
		got = append(got, ev)
	}
	require.NoError(t, <-done)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].Tick.Seq)
	assert.Equal(t, 102.0, got[1].Tick.AskPrice)
}

func TestStream_ForwardsMalformedRows(t *testing.T) {
	data := "bid_price,bid_size,ask_price,ask_size\nx,1,1,1\n99,1,101,1\n"
	out := make(chan Event, 4)
	require.NoError(t, Stream(context.Background(), NewCSVSource(strings.NewReader(data), 0), out))

	var evs []Event
	for ev := range out {
		evs = append(evs, ev)
	}
	require.Len(t, evs, 2)
	assert.ErrorIs(t, evs[0].Err, market.ErrMalformedTick)
	assert.NoError(t, evs[1].Err)
	// 坏行也带序号，方便定位
	assert.Equal(t, uint64(1), evs[0].Tick.Seq)
	assert.Equal(t, uint64(2), evs[1].Tick.Seq)
}

func TestStream_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := NewRandomWalkSource(RandomWalkConfig{Seed: 1})
	out := make(chan Event)
	done := make(chan error, 1)
	go func() { done <- Stream(ctx, src, out) }()
	<-out
	cancel()
	for range out {
	}
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestParseBookTicker(t *testing.T) {
	raw := `{"u":400900217,"s":"BNBUSDT","b":"25.35190000","B":"31.21000000","a":"25.36520000","A":"40.66000000","E":1568014460893}`
	tick, err := ParseBookTicker([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 25.3519, tick.BidPrice)
	assert.Equal(t, 31.21, tick.BidSize)
	assert.Equal(t, 25.3652, tick.AskPrice)
	assert.Equal(t, 40.66, tick.AskSize)
	assert.Equal(t, uint64(400900217), tick.Seq)
	assert.Equal(t, int64(1568014460893), tick.Ts.UnixMilli())

	combined := `{"stream":"bnbusdt@bookTicker","data":` + raw + `}`
	tick2, err := ParseBookTicker([]byte(combined))
	require.NoError(t, err)
	assert.Equal(t, tick.BidPrice, tick2.BidPrice)

	_, err = ParseBookTicker([]byte(`{"b":"x","B":"1","a":"1","A":"1"}`))
	assert.ErrorIs(t, err, market.ErrMalformedTick)
	_, err = ParseBookTicker([]byte(`not json`))
	assert.ErrorIs(t, err, market.ErrMalformedTick)
}

func TestWSSource_ReadsUntilClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"u":1,"s":"BTCUSDT","b":"99","B":"1","a":"101","A":"2"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"u":2,"s":"BTCUSDT","b":"100","B":"1","a":"102","A":"2"}`))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	src := NewWSSource("BTCUSDT")
	src.BaseEndpoint = "ws://" + strings.TrimPrefix(srv.URL, "http://")
	defer src.Close()

	ticks, errs := drain(t, src)
	require.Empty(t, errs)
	require.Len(t, ticks, 2)
	assert.Equal(t, "/ws/btcusdt@bookTicker", gotPath)
	assert.Equal(t, 101.0, (ticks[1].BidPrice+ticks[1].AskPrice)/2)
}

func TestWSSource_RequiresSymbol(t *testing.T) {
	_, err := NewWSSource("").URL()
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	path := t.TempDir() + "/ticks.csv"
	require.NoError(t, os.WriteFile(path, []byte("bid_price,bid_size,ask_price,ask_size\n99,1,101,1\n"), 0o644))

	src, closeFn, err := Open(config.FeedConfig{Kind: config.FeedCSV, Path: path})
	require.NoError(t, err)
	tick, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 99.0, tick.BidPrice)
	assert.NoError(t, closeFn())

	src, _, err = Open(config.FeedConfig{Kind: config.FeedRandom, Random: config.RandomConfig{Seed: 3, Count: 1}})
	require.NoError(t, err)
	assert.IsType(t, &RandomWalkSource{}, src)

	src, _, err = Open(config.FeedConfig{Kind: config.FeedWS, Symbol: "ethusdt", URL: "ws://127.0.0.1:1"})
	require.NoError(t, err)
	u, err := src.(*WSSource).URL()
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:1/ws/ethusdt@bookTicker", u)

	_, _, err = Open(config.FeedConfig{Kind: config.FeedCSV, Path: t.TempDir() + "/missing.csv"})
	assert.Error(t, err)
	_, _, err = Open(config.FeedConfig{Kind: "kafka"})
	assert.Error(t, err)
}
