package inventory

import "testing"

func TestValuation(t *testing.T) {
	var acc Account
	acc.Apply(1, 100)
	_, pnl := acc.Valuation(110)
	if pnl != 10 {
		t.Fatalf("expected pnl 10 got %f", pnl)
	}
	if eq := acc.Equity(110); eq != 10 {
		t.Fatalf("expected equity 10 got %f", eq)
	}
}
