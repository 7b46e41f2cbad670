package index

import "testing"

func TestBTreeInsertLookup(t *testing.T) {
	bt := NewBTree()
	bt.Insert(10, 1)
	bt.Insert(10, 4)
	bt.Insert(20, 2)

	ids := bt.Lookup(10)
	if len(ids) != 2 {
		t.Errorf("expected 2 rids for key 10, got %d", len(ids))
	}
	ids = bt.Lookup(20)
	if len(ids) != 1 || ids[0] != 2 {
		t.Errorf("expected [2], got %v", ids)
	}
	if ids := bt.Lookup(30); len(ids) != 0 {
		t.Errorf("expected 0 rids for missing key, got %v", ids)
	}
}

func TestBTreeRemove(t *testing.T) {
	bt := NewBTree()
	bt.Insert(10, 1)
	bt.Insert(10, 4)

	bt.Remove(10, 1)
	ids := bt.Lookup(10)
	if len(ids) != 1 || ids[0] != 4 {
		t.Errorf("expected [4], got %v", ids)
	}

	bt.Remove(10, 4)
	if ids := bt.Lookup(10); len(ids) != 0 {
		t.Errorf("expected empty after removing all, got %v", ids)
	}
}

func TestBTreeRemoveNonExistent(t *testing.T) {
	bt := NewBTree()
	bt.Insert(10, 1)
	bt.Remove(10, 999)
	bt.Remove(999, 1)
	if ids := bt.Lookup(10); len(ids) != 1 {
		t.Errorf("expected untouched entry, got %v", ids)
	}
}

func TestBTreeRangeScan(t *testing.T) {
	bt := NewBTree()
	bt.Insert(1, 10)
	bt.Insert(3, 30)
	bt.Insert(5, 50)
	bt.Insert(7, 70)

	ids := bt.RangeScan(2, 6)
	if len(ids) != 2 {
		t.Errorf("expected 2 ids in [2,6], got %d: %v", len(ids), ids)
	}

	ids = bt.RangeScan(-100, 4)
	if len(ids) != 2 {
		t.Errorf("expected 2 ids with open-ended min, got %d", len(ids))
	}

	ids = bt.RangeScan(4, 1000)
	if len(ids) != 2 {
		t.Errorf("expected 2 ids with open-ended max, got %d", len(ids))
	}
}

func TestBTreeAllEntries(t *testing.T) {
	bt := NewBTree()
	bt.Insert(1, 10)
	bt.Insert(2, 20)

	entries := bt.AllEntries()
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
	entries[1] = append(entries[1], 999)
	if got := bt.Lookup(1); len(got) != 1 {
		t.Error("AllEntries should return a copy, not a live reference")
	}
}

func TestBTreeManyEntries(t *testing.T) {
	bt := NewBTree()
	for i := int64(0); i < 200; i++ {
		bt.Insert(i, i*10)
	}
	for i := int64(0); i < 200; i++ {
		ids := bt.Lookup(i)
		if len(ids) != 1 || ids[0] != i*10 {
			t.Fatalf("lookup(%d): expected [%d], got %v", i, i*10, ids)
		}
	}
	if bt.Len() != 200 {
		t.Errorf("expected 200 entries, got %d", bt.Len())
	}
}
