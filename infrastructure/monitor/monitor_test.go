package monitor

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_Counters(t *testing.T) {
	m := New(DefaultConfig())

	m.RecordTickProcessed(0.0001)
	m.RecordTickProcessed(0.0002)
	m.RecordTickSkipped("stale_book")
	m.RecordFill("buy", 1.5)
	m.RecordFill("sell", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticksProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticksSkipped.WithLabelValues("stale_book")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ticksSkipped.WithLabelValues("malformed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fills.WithLabelValues("buy")))
	assert.Equal(t, 3.5, testutil.ToFloat64(m.tradedVolume))
}

func TestMonitor_Gauges(t *testing.T) {
	m := New(DefaultConfig())

	m.UpdateAccount(-1, 250, 10150)
	m.UpdateMarket(100, 0.02, 1)
	m.UpdateQuote(99.5, 100.5)
	m.UpdateDrawdown(12)

	assert.Equal(t, -1.0, testutil.ToFloat64(m.inventory))
	assert.Equal(t, 10150.0, testutil.ToFloat64(m.equity))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotedSpread))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.regime))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.drawdown))
}

func TestMonitor_Handler(t *testing.T) {
	m := New(Config{Namespace: "test", Subsystem: "sim"})
	m.RecordConfigReload()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_sim_config_reloads_total 1")
}

func TestMonitor_ServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	m := New(DefaultConfig())
	m.RecordTickSkipped("malformed")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx, addr) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.True(t, strings.Contains(body, `mm_sim_ticks_skipped_total{reason="malformed"} 1`))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
