package storage

import "testing"

const testNumCols = 7 // 4 metadata + 3 user columns, matching a Table(N=3)

func TestPageRangeAppendBaseAndRead(t *testing.T) {
	r := NewPageRange(0, testNumCols)
	group, slot, err := r.AppendBase([]int64{1, 1, 0, 100, 1, 200, 300})
	if err != nil {
		t.Fatalf("append base: %v", err)
	}
	if group != 0 || slot != 0 {
		t.Fatalf("expected (group 0, slot 0), got (%d, %d)", group, slot)
	}
	if got := r.ReadCell(KindBase, group, slot, 4); got != 1 {
		t.Errorf("col 4 expected 1, got %d", got)
	}
	if got := r.ReadCell(KindBase, group, slot, 6); got != 300 {
		t.Errorf("col 6 expected 300, got %d", got)
	}
}

func TestPageRangeBaseGroupRollsOverOnFullPage(t *testing.T) {
	r := NewPageRange(0, testNumCols)
	values := make([]int64, testNumCols)
	for i := 0; i < PageCapacity; i++ {
		if _, _, err := r.AppendBase(values); err != nil {
			t.Fatalf("unexpected error at i=%d: %v", i, err)
		}
	}
	if r.BaseGroupCount() != 1 {
		t.Fatalf("expected 1 base group while filling it, got %d", r.BaseGroupCount())
	}
	group, slot, err := r.AppendBase(values)
	if err != nil {
		t.Fatalf("append after rollover: %v", err)
	}
	if group != 1 || slot != 0 {
		t.Fatalf("expected new group 1 slot 0, got (%d, %d)", group, slot)
	}
	if r.BaseGroupCount() != 2 {
		t.Fatalf("expected 2 base groups after rollover, got %d", r.BaseGroupCount())
	}
}

func TestPageRangeExhaustsBaseCapacity(t *testing.T) {
	r := NewPageRange(0, testNumCols)
	values := make([]int64, testNumCols)
	total := BaseGroupCap * PageCapacity
	for i := 0; i < total; i++ {
		if _, _, err := r.AppendBase(values); err != nil {
			t.Fatalf("unexpected error at i=%d: %v", i, err)
		}
	}
	if _, _, err := r.AppendBase(values); err != ErrRangeFull {
		t.Fatalf("expected ErrRangeFull, got %v", err)
	}
}

func TestPageRangeTailNeverCaps(t *testing.T) {
	r := NewPageRange(0, testNumCols)
	values := make([]int64, testNumCols)
	total := (BaseGroupCap + 3) * PageCapacity // well beyond the base cap
	for i := 0; i < total; i++ {
		r.AppendTail(values)
	}
	wantGroups := (total + PageCapacity - 1) / PageCapacity
	if r.TailGroupCount() != wantGroups {
		t.Fatalf("expected %d tail groups, got %d", wantGroups, r.TailGroupCount())
	}
}

func TestPageRangeOverwriteCell(t *testing.T) {
	r := NewPageRange(0, testNumCols)
	group, slot, _ := r.AppendBase([]int64{1, 1, 0, 100, 1, 200, 300})
	r.OverwriteCell(KindBase, group, slot, 1, 55)
	if got := r.ReadCell(KindBase, group, slot, 1); got != 55 {
		t.Errorf("expected overwritten indirection 55, got %d", got)
	}
}

func TestPageRangeRoundTripEncode(t *testing.T) {
	r := NewPageRange(3, testNumCols)
	r.AppendBase([]int64{1, 1, 0, 100, 1, 200, 300})
	r.AppendTail([]int64{2, 2, 0, 101, 1, 999, 300})

	w := NewBinaryWriter()
	EncodePageRange(w, r)
	rd := NewBinaryReader(w.Bytes())
	loaded, err := DecodePageRange(rd)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loaded.RangeID != 3 {
		t.Errorf("expected rangeID 3, got %d", loaded.RangeID)
	}
	if got := loaded.ReadCell(KindBase, 0, 0, 6); got != 300 {
		t.Errorf("base col 6 expected 300, got %d", got)
	}
	if got := loaded.ReadCell(KindTail, 0, 0, 5); got != 999 {
		t.Errorf("tail col 5 expected 999, got %d", got)
	}
}
