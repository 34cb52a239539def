package inventory

import "testing"

func TestAccountApply(t *testing.T) {
	var acc Account
	acc.Apply(1, 100)
	if acc.NetExposure() != 1 || acc.Cash != -100 {
		t.Fatalf("unexpected account %+v", acc)
	}
	if acc.AvgCost() != 100 {
		t.Fatalf("expected cost 100 got %f", acc.AvgCost())
	}
	acc.Apply(1, 110) // cost should move toward 105
	if acc.AvgCost() != 105 {
		t.Fatalf("unexpected avg cost %f", acc.AvgCost())
	}
	acc.Apply(-2, 120)
	if acc.Inventory != 0 || acc.AvgCost() != 0 {
		t.Fatalf("expected flat account, got %+v", acc)
	}
	if acc.RealizedPnL() != 30 {
		t.Fatalf("expected realized 30 got %f", acc.RealizedPnL())
	}
	if acc.Cash != 30 {
		t.Fatalf("expected cash 30 got %f", acc.Cash)
	}
	if acc.Volume() != 4 {
		t.Fatalf("expected volume 4 got %f", acc.Volume())
	}
}

func TestAccountFlip(t *testing.T) {
	var acc Account
	acc.Apply(1, 100)
	acc.Apply(-3, 90) // 平 1 亏 10，再开空 2 @ 90
	if acc.Inventory != -2 || acc.AvgCost() != 90 {
		t.Fatalf("unexpected flip state %+v cost=%f", acc, acc.AvgCost())
	}
	if acc.RealizedPnL() != -10 {
		t.Fatalf("expected realized -10 got %f", acc.RealizedPnL())
	}
}
