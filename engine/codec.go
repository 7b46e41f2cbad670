package engine

import (
	"github.com/go-lstore/lstore/storage"
)

// EncodeTable writes name, N, key column, counters, the primary-key index
// entries, the page directory, and every PageRange. Secondary indexes are
// not persisted — they are an optional, on-demand build (spec's
// non-goal on secondary-index maintenance) and are rebuilt by the host if
// it wants them again after an open.
func EncodeTable(w *storage.BinaryWriter, t *Table) {
	w.WriteString(t.Name)
	w.WriteUint32(uint32(t.N))
	w.WriteUint32(uint32(t.Key))
	w.WriteInt64(t.nextRID)
	w.WriteInt64(t.nextTS)

	entries := t.indexes.Primary().AllEntries()
	var total uint32
	for _, rids := range entries {
		total += uint32(len(rids))
	}
	w.WriteUint32(total)
	for key, rids := range entries {
		for _, rid := range rids {
			w.WriteInt64(key)
			w.WriteInt64(rid)
		}
	}

	storage.EncodeDirectory(w, t.dir)

	w.WriteUint32(uint32(len(t.ranges)))
	for _, r := range t.ranges {
		storage.EncodePageRange(w, r)
	}
}

// DecodeTable reads back a table written by EncodeTable.
func DecodeTable(r *storage.BinaryReader) (*Table, error) {
	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	key, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	nextRID, err := r.ReadInt64()
	if err != nil {
		return nil, err
	}
	nextTS, err := r.ReadInt64()
	if err != nil {
		return nil, err
	}

	t := NewTable(name, int(n), int(key))
	t.nextRID = nextRID
	t.nextTS = nextTS

	entryPairs, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	entries := make(map[int64][]int64)
	for i := uint32(0); i < entryPairs; i++ {
		k, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		rid, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		entries[k] = append(entries[k], rid)
	}
	t.indexes.Primary().Load(entries)

	dir, err := storage.DecodeDirectory(r)
	if err != nil {
		return nil, err
	}
	t.dir = dir

	numRanges, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	t.ranges = make([]*storage.PageRange, numRanges)
	for i := uint32(0); i < numRanges; i++ {
		pr, err := storage.DecodePageRange(r)
		if err != nil {
			return nil, err
		}
		t.ranges[i] = pr
	}
	return t, nil
}
