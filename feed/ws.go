package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"market-maker-sim/market"
)

// BinanceFuturesWSEndpoint 默认 USDⓈ-M 合约行情地址。
const BinanceFuturesWSEndpoint = "wss://fstream.binance.com"

// bookTicker 是 <symbol>@bookTicker 推送的核心字段。
type bookTicker struct {
	UpdateID  uint64 `json:"u"`
	Symbol    string `json:"s"`
	BidPrice  string `json:"b"`
	BidQty    string `json:"B"`
	AskPrice  string `json:"a"`
	AskQty    string `json:"A"`
	EventTime int64  `json:"E"`
}

type combinedMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// ParseBookTicker 解析单流或 combined stream 的 bookTicker 消息。
func ParseBookTicker(raw []byte) (market.Tick, error) {
	var wrapped combinedMessage
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Data) > 0 {
		raw = wrapped.Data
	}
	var bt bookTicker
	if err := json.Unmarshal(raw, &bt); err != nil {
		return market.Tick{}, fmt.Errorf("%w: bookTicker json: %v", market.ErrMalformedTick, err)
	}
	fields := [4]string{bt.BidPrice, bt.BidQty, bt.AskPrice, bt.AskQty}
	names := [4]string{"b", "B", "a", "A"}
	var vals [4]float64
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Tick{}, fmt.Errorf("%w: bookTicker %s=%q", market.ErrMalformedTick, names[i], s)
		}
		vals[i] = v
	}
	tick := market.Tick{
		BidPrice: vals[0],
		BidSize:  vals[1],
		AskPrice: vals[2],
		AskSize:  vals[3],
		Seq:      bt.UpdateID,
	}
	if bt.EventTime > 0 {
		tick.Ts = time.UnixMilli(bt.EventTime)
	}
	return tick, nil
}

// WSSource 订阅 Binance bookTicker 并逐条返回 tick。
type WSSource struct {
	BaseEndpoint string
	Symbol       string
	ReadTimeout  time.Duration
	Dialer       *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
	stop context.CancelFunc
}

func NewWSSource(symbol string) *WSSource {
	return &WSSource{
		BaseEndpoint: BinanceFuturesWSEndpoint,
		Symbol:       symbol,
		ReadTimeout:  30 * time.Second,
		Dialer:       websocket.DefaultDialer,
	}
}

// URL 返回单流订阅地址。
func (w *WSSource) URL() (string, error) {
	if w.Symbol == "" {
		return "", fmt.Errorf("symbol required")
	}
	u, err := url.Parse(w.BaseEndpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/" + strings.ToLower(w.Symbol) + "@bookTicker"
	return u.String(), nil
}

// Connect 建立连接；ctx 取消时连接被关闭，阻塞中的 Next 随即返回。
func (w *WSSource) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		return nil
	}
	addr, err := w.URL()
	if err != nil {
		return err
	}
	dialer := w.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	watchCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-watchCtx.Done()
		_ = conn.Close()
	}()
	w.conn = conn
	w.stop = cancel
	return nil
}

func (w *WSSource) Next(ctx context.Context) (market.Tick, error) {
	if err := ctx.Err(); err != nil {
		return market.Tick{}, err
	}
	if err := w.Connect(ctx); err != nil {
		return market.Tick{}, err
	}
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	if w.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(w.ReadTimeout))
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return market.Tick{}, ctxErr
		}
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
			return market.Tick{}, io.EOF
		}
		return market.Tick{}, fmt.Errorf("binance ws read: %w", err)
	}
	return ParseBookTicker(msg)
}

func (w *WSSource) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		w.stop()
	}
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}
