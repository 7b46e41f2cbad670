package storage

// Location is the physical address a RID resolves to: a page range, a
// page-group kind (base or tail), a page group within that kind, and a
// slot shared across all of that group's parallel column pages.
type Location struct {
	RangeID uint32
	Kind    PageKind
	Group   uint32
	Slot    int
}

// PageDirectory maps a RID to its physical Location. Entries are created
// on insert/update and never rewritten; a deleted logical record's primary
// index entry is removed by the Index, but its PageDirectory entries are
// left in place since nothing else references them and collecting them is
// optional (spec.md §3 "Lifecycles").
//
// No internal locking: the Table is the sole mutator (spec.md §4.3), and
// the engine-wide lock in package concurrency serializes all writers.
type PageDirectory struct {
	entries map[int64]Location
}

// NewPageDirectory returns an empty directory.
func NewPageDirectory() *PageDirectory {
	return &PageDirectory{entries: make(map[int64]Location)}
}

// Put records loc as rid's physical location.
func (d *PageDirectory) Put(rid int64, loc Location) {
	d.entries[rid] = loc
}

// Get resolves rid to its Location. ok is false if rid is unknown.
func (d *PageDirectory) Get(rid int64) (Location, bool) {
	loc, ok := d.entries[rid]
	return loc, ok
}

// Delete removes rid's entry. Neither record delete nor transaction abort
// calls it; both only touch the primary index.
func (d *PageDirectory) Delete(rid int64) {
	delete(d.entries, rid)
}

// Len returns the number of tracked RIDs, written by the snapshot encoder
// as the directory's entry count.
func (d *PageDirectory) Len() int {
	return len(d.entries)
}

// Entries iterates all rid->Location pairs in unspecified order, used by
// the snapshot writer.
func (d *PageDirectory) Entries(fn func(rid int64, loc Location)) {
	for rid, loc := range d.entries {
		fn(rid, loc)
	}
}
