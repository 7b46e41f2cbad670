package engine

import (
	"testing"

	"github.com/go-lstore/lstore/storage"
)

func allMask(n int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

func ptr(v int64) *int64 { return &v }

func TestInsertSelectRoundTrip(t *testing.T) {
	tbl := NewTable("T", 3, 0)
	if _, err := tbl.Insert([]int64{1, 100, 200}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	rec, err := tbl.SelectLatest(1, allMask(3))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	want := []int64{1, 100, 200}
	for i, v := range want {
		if rec.Columns()[i] != v {
			t.Errorf("col %d: expected %d, got %d", i, v, rec.Columns()[i])
		}
	}
}

func TestInsertDuplicateKeyRejected(t *testing.T) {
	tbl := NewTable("T", 3, 0)
	tbl.Insert([]int64{1, 100, 200})
	if _, err := tbl.Insert([]int64{1, 1, 1}); err != ErrKeyExists {
		t.Fatalf("expected ErrKeyExists, got %v", err)
	}
	rec, _ := tbl.SelectLatest(1, allMask(3))
	if rec.Columns()[1] != 100 {
		t.Error("duplicate insert must not alter existing state")
	}
}

func TestUpdateAndVersionWalk(t *testing.T) {
	tbl := NewTable("T", 3, 0)
	tbl.Insert([]int64{1, 100, 200})

	if _, err := tbl.Update(1, []*int64{nil, ptr(999), ptr(888)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	rec, _ := tbl.SelectLatest(1, allMask(3))
	want := []int64{1, 999, 888}
	for i, v := range want {
		if rec.Columns()[i] != v {
			t.Errorf("latest col %d: expected %d, got %d", i, v, rec.Columns()[i])
		}
	}

	rec, err := tbl.SelectVersion(1, allMask(3), -1)
	if err != nil {
		t.Fatalf("select_version(-1): %v", err)
	}
	want = []int64{1, 100, 200}
	for i, v := range want {
		if rec.Columns()[i] != v {
			t.Errorf("-1 col %d: expected %d, got %d", i, v, rec.Columns()[i])
		}
	}

	rec, err = tbl.SelectVersion(1, allMask(3), -5)
	if err != nil {
		t.Fatalf("select_version(-5): %v", err)
	}
	for i, v := range want {
		if rec.Columns()[i] != v {
			t.Errorf("-5 (clamped to base) col %d: expected %d, got %d", i, v, rec.Columns()[i])
		}
	}
}

func TestUpdateRejectsKeyColumnChange(t *testing.T) {
	tbl := NewTable("T", 2, 0)
	tbl.Insert([]int64{1, 10})
	if _, err := tbl.Update(1, []*int64{ptr(2), nil}); err != ErrSchemaViolation {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestUpdateWithAllHolesIsObservableNoOp(t *testing.T) {
	tbl := NewTable("T", 2, 0)
	tbl.Insert([]int64{1, 10})
	if _, err := tbl.Update(1, []*int64{nil, nil}); err != nil {
		t.Fatalf("update: %v", err)
	}
	rec, _ := tbl.SelectLatest(1, allMask(2))
	if rec.Columns()[1] != 10 {
		t.Errorf("expected unchanged value 10, got %d", rec.Columns()[1])
	}
}

func TestDeleteThenAggregate(t *testing.T) {
	tbl := NewTable("T", 5, 0)
	for k := int64(10); k < 20; k++ {
		tbl.Insert([]int64{k, 93, 0, 0, 0})
	}
	for k := int64(10); k < 20; k += 2 {
		if err := tbl.Delete(k); err != nil {
			t.Fatalf("delete %d: %v", k, err)
		}
	}
	sum, err := tbl.Sum(10, 19, 1)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 5*93 {
		t.Errorf("expected %d, got %d", 5*93, sum)
	}
}

func TestSumEmptyRange(t *testing.T) {
	tbl := NewTable("T", 2, 0)
	tbl.Insert([]int64{1, 10})
	if _, err := tbl.Sum(100, 200, 1); err != ErrEmptyRange {
		t.Fatalf("expected ErrEmptyRange, got %v", err)
	}
}

func TestInsertDeleteReinsertRoundTrip(t *testing.T) {
	tbl := NewTable("T", 2, 0)
	tbl.Insert([]int64{1, 10})
	tbl.Delete(1)
	if _, err := tbl.SelectLatest(1, allMask(2)); err != ErrNotFound {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
	tbl.Insert([]int64{1, 20})
	rec, err := tbl.SelectLatest(1, allMask(2))
	if err != nil {
		t.Fatalf("select after reinsert: %v", err)
	}
	if rec.Columns()[1] != 20 {
		t.Errorf("expected 20, got %d", rec.Columns()[1])
	}
}

func TestIncrement(t *testing.T) {
	tbl := NewTable("T", 2, 0)
	tbl.Insert([]int64{1, 10})
	if _, err := tbl.Increment(1, 1); err != nil {
		t.Fatalf("increment: %v", err)
	}
	rec, _ := tbl.SelectLatest(1, allMask(2))
	if rec.Columns()[1] != 11 {
		t.Errorf("expected 11, got %d", rec.Columns()[1])
	}
}

func TestRIDsStrictlyIncreasing(t *testing.T) {
	tbl := NewTable("T", 1, 0)
	var last int64 = -1
	for k := int64(0); k < 50; k++ {
		rid, err := tbl.Insert([]int64{k})
		if err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
		if rid <= last {
			t.Fatalf("RID not increasing: %d after %d", rid, last)
		}
		last = rid
	}
}

func TestBaseRangeRolloverRemainsCorrect(t *testing.T) {
	tbl := NewTable("T", 1, 0)
	total := storage.BaseGroupCap*storage.PageCapacity + 5
	for k := int64(0); k < int64(total); k++ {
		if _, err := tbl.Insert([]int64{k}); err != nil {
			t.Fatalf("insert %d: %v", k, err)
		}
	}
	if len(tbl.ranges) != 2 {
		t.Fatalf("expected rollover into a second range, got %d ranges", len(tbl.ranges))
	}
	rec, err := tbl.SelectLatest(int64(total-1), allMask(1))
	if err != nil {
		t.Fatalf("select last key: %v", err)
	}
	if rec.Columns()[0] != int64(total-1) {
		t.Errorf("expected %d, got %d", total-1, rec.Columns()[0])
	}
}

func TestEncodeDecodeTableRoundTrip(t *testing.T) {
	tbl := NewTable("Grades", 3, 0)
	tbl.Insert([]int64{1, 100, 200})
	tbl.Update(1, []*int64{nil, ptr(999), nil})

	w := storage.NewBinaryWriter()
	EncodeTable(w, tbl)

	loaded, err := DecodeTable(storage.NewBinaryReader(w.Bytes()))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rec, err := loaded.SelectLatest(1, allMask(3))
	if err != nil {
		t.Fatalf("select after reload: %v", err)
	}
	want := []int64{1, 999, 200}
	for i, v := range want {
		if rec.Columns()[i] != v {
			t.Errorf("col %d: expected %d, got %d", i, v, rec.Columns()[i])
		}
	}
	if loaded.Name != "Grades" {
		t.Errorf("expected name Grades, got %q", loaded.Name)
	}
}

// TestKeyColumnOtherThanZeroLeavesColumnZeroIndexable guards against the
// primary index reserving a fixed slot regardless of the table's actual
// key column: with Key=2, column 0 must still gain its own independent
// secondary index and resolve correctly via BuildIndex/SelectLatestByRID.
func TestKeyColumnOtherThanZeroLeavesColumnZeroIndexable(t *testing.T) {
	tbl := NewTable("Scores", 3, 2)
	tbl.Insert([]int64{50, 0, 1})
	tbl.Insert([]int64{50, 0, 2})
	tbl.Insert([]int64{60, 0, 3})

	if err := tbl.BuildIndex(0); err != nil {
		t.Fatalf("expected column 0 to be indexable when the key lives on column 2: %v", err)
	}

	rids := tbl.Indexes().Get(0).Lookup(50)
	if len(rids) != 2 {
		t.Fatalf("expected 2 rids for column-0 value 50, got %d", len(rids))
	}
	for _, rid := range rids {
		rec, err := tbl.SelectLatestByRID(rid, allMask(3))
		if err != nil {
			t.Fatalf("select by rid: %v", err)
		}
		if rec.Columns()[0] != 50 {
			t.Errorf("expected col 0 == 50, got %d", rec.Columns()[0])
		}
	}

	rec, err := tbl.SelectLatest(1, allMask(3))
	if err != nil {
		t.Fatalf("select by key column 2: %v", err)
	}
	if rec.Columns()[2] != 1 {
		t.Errorf("expected key column value 1, got %d", rec.Columns()[2])
	}
}
