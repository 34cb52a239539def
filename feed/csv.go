package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"market-maker-sim/market"
)

// CSV 列名，顺序不限，多余列忽略。
const (
	ColBidPrice = "bid_price"
	ColBidSize  = "bid_size"
	ColAskPrice = "ask_price"
	ColAskSize  = "ask_size"
)

var requiredColumns = []string{ColBidPrice, ColBidSize, ColAskPrice, ColAskSize}

// CSVSource 从 CSV 读取 tick。
type CSVSource struct {
	r      *csv.Reader
	closer io.Closer
	delay  time.Duration
	clock  Clock

	cols   map[string]int
	row    int
	seq    uint64
	primed bool
}

// NewCSVSource 包装 reader；delay > 0 时每条 tick 之前等待 delay。
func NewCSVSource(r io.Reader, delay time.Duration) *CSVSource {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &CSVSource{r: cr, delay: delay, clock: realClock{}}
}

// OpenCSV 打开文件并返回 CSVSource，调用方负责 Close。
func OpenCSV(path string, delay time.Duration) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed %s: %w", path, err)
	}
	s := NewCSVSource(f, delay)
	s.closer = f
	return s, nil
}

// WithClock swaps the pacing clock.
func (s *CSVSource) WithClock(c Clock) *CSVSource {
	if c != nil {
		s.clock = c
	}
	return s
}

func (s *CSVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *CSVSource) readHeader() error {
	header, err := s.r.Read()
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}
	s.cols = make(map[string]int, len(header))
	for i, name := range header {
		s.cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := s.cols[c]; !ok {
			return fmt.Errorf("csv header missing column %q", c)
		}
	}
	s.primed = true
	return nil
}

func (s *CSVSource) Next(ctx context.Context) (market.Tick, error) {
	if err := ctx.Err(); err != nil {
		return market.Tick{}, err
	}
	if !s.primed {
		if err := s.readHeader(); err != nil {
			return market.Tick{}, err
		}
	}
	if err := s.clock.Sleep(ctx, s.delay); err != nil {
		return market.Tick{}, err
	}
	rec, err := s.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return market.Tick{}, io.EOF
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			s.row++
			s.seq++
			return market.Tick{Seq: s.seq}, fmt.Errorf("%w: row %d: %v", market.ErrMalformedTick, s.row, perr.Err)
		}
		return market.Tick{}, err
	}
	s.row++
	s.seq++

	var vals [4]float64
	for i, c := range requiredColumns {
		idx := s.cols[c]
		if idx >= len(rec) {
			return market.Tick{Seq: s.seq}, fmt.Errorf("%w: row %d: missing %s", market.ErrMalformedTick, s.row, c)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
		if err != nil {
			return market.Tick{Seq: s.seq}, fmt.Errorf("%w: row %d: %s=%q", market.ErrMalformedTick, s.row, c, rec[idx])
		}
		vals[i] = v
	}
	return market.Tick{
		BidPrice: vals[0],
		BidSize:  vals[1],
		AskPrice: vals[2],
		AskSize:  vals[3],
		Seq:      s.seq,
	}, nil
}
