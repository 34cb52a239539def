package order

import "testing"

func TestJournalAddGetList(t *testing.T) {
	j := NewJournal()
	j.Add(Fill{ID: "fill-1", Seq: 1, Direction: Buy, Price: 100, Size: 1})
	j.Add(Fill{ID: "fill-2", Seq: 2, Direction: Sell, Price: 101, Size: 1})
	got, ok := j.Get("fill-2")
	if !ok || got.Direction != Sell {
		t.Fatalf("get failed: %+v %v", got, ok)
	}
	if _, ok := j.Get("missing"); ok {
		t.Fatalf("unexpected hit")
	}
	list := j.List()
	if len(list) != 2 || j.Len() != 2 {
		t.Fatalf("expected 2 fills, got %d", len(list))
	}
	list[0].Price = 0
	if f, _ := j.Get("fill-1"); f.Price != 100 {
		t.Fatalf("list should be a copy")
	}
	since := j.Since(1)
	if len(since) != 1 || since[0].ID != "fill-2" {
		t.Fatalf("unexpected since result %+v", since)
	}
	if j.Since(2) != nil {
		t.Fatalf("expected nil")
	}
}
