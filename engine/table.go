// Package engine implements the page-backed Table: the sole mutator of a
// table's pages, page directory, indexes, and RID/timestamp counters, and
// the primitive operations the query layer composes into public semantics.
package engine

import (
	"github.com/go-lstore/lstore/index"
	"github.com/go-lstore/lstore/storage"
)

// Table owns one schema's physical storage: a fixed number N of 64-bit
// user columns, a designated primary-key column k, a growing list of
// PageRanges, a page directory, and a primary (plus optional secondary)
// index.
type Table struct {
	Name    string
	N       int
	Key     int
	ranges  []*storage.PageRange
	dir     *storage.PageDirectory
	indexes *index.Manager
	cache   *storage.RecordCache
	nextRID int64
	nextTS  int64
}

func (t *Table) numCols() int { return numMetaCols + t.N }

// NewTable creates an empty table with N user columns and primary key
// column k.
func NewTable(name string, n, key int) *Table {
	return &Table{
		Name:    name,
		N:       n,
		Key:     key,
		dir:     storage.NewPageDirectory(),
		indexes: index.NewManager(name, key),
		cache:   storage.NewRecordCache(0),
	}
}

// Indexes exposes the table's index manager, used by Query to resolve
// lookups through a secondary index built with BuildIndex.
func (t *Table) Indexes() *index.Manager { return t.indexes }

func (t *Table) activeRange() *storage.PageRange {
	if len(t.ranges) == 0 {
		t.ranges = append(t.ranges, storage.NewPageRange(0, t.numCols()))
	}
	return t.ranges[len(t.ranges)-1]
}

func (t *Table) rangeByID(id uint32) *storage.PageRange {
	return t.ranges[id]
}

func (t *Table) readCell(loc storage.Location, col int) int64 {
	return t.rangeByID(loc.RangeID).ReadCell(loc.Kind, loc.Group, loc.Slot, col)
}

func (t *Table) readRow(loc storage.Location) []int64 {
	row := make([]int64, t.numCols())
	for c := range row {
		row[c] = t.readCell(loc, c)
	}
	return row
}

func (t *Table) lookupPrimary(key int64) (int64, bool) {
	rids := t.indexes.Primary().Lookup(key)
	if len(rids) == 0 {
		return 0, false
	}
	return rids[len(rids)-1], true
}

// Insert creates a new base record. Returns ErrKeyExists if values[Key] is
// already present.
func (t *Table) Insert(values []int64) (int64, error) {
	if len(values) != t.N {
		return 0, ErrSchemaViolation
	}
	key := values[t.Key]
	if _, exists := t.lookupPrimary(key); exists {
		return 0, ErrKeyExists
	}

	rid := t.nextRID
	t.nextRID++
	ts := t.nextTS
	t.nextTS++

	row := make([]int64, t.numCols())
	row[colRID] = rid
	row[colIndirection] = rid
	row[colSchemaEncoding] = 0
	row[colTimestamp] = ts
	copy(row[numMetaCols:], values)

	r := t.activeRange()
	group, slot, err := r.AppendBase(row)
	if err == storage.ErrRangeFull {
		r = storage.NewPageRange(uint32(len(t.ranges)), t.numCols())
		t.ranges = append(t.ranges, r)
		group, slot, err = r.AppendBase(row)
	}
	if err != nil {
		// AppendBase on a freshly allocated range cannot fail.
		panic("engine: unexpected base append failure: " + err.Error())
	}

	t.dir.Put(rid, storage.Location{RangeID: r.RangeID, Kind: storage.KindBase, Group: group, Slot: slot})
	t.indexes.Primary().Add(key, rid)
	return rid, nil
}

func (t *Table) latestLocation(baseRID int64) (storage.Location, int64) {
	baseLoc, _ := t.dir.Get(baseRID)
	latestRID := t.readCell(baseLoc, colIndirection)
	if latestRID == baseRID {
		return baseLoc, latestRID
	}
	loc, _ := t.dir.Get(latestRID)
	return loc, latestRID
}

// SelectLatestByRID resolves a known base RID directly, bypassing the
// primary index. Used for secondary-index lookups on non-key columns,
// where the index already yields base RIDs rather than keys.
func (t *Table) SelectLatestByRID(baseRID int64, mask []bool) (Record, error) {
	if _, ok := t.dir.Get(baseRID); !ok {
		return Record{}, ErrNotFound
	}
	row := t.latestRow(baseRID)
	return Record{columns: project(row, mask)}, nil
}

// latestRow returns baseRID's latest post-image, consulting the record
// cache first. select_version never calls this, since it must walk the
// real indirection chain rather than serve a cached head.
func (t *Table) latestRow(baseRID int64) []int64 {
	if row, ok := t.cache.Get(baseRID); ok {
		return row
	}
	loc, _ := t.latestLocation(baseRID)
	row := t.readRow(loc)
	t.cache.Put(baseRID, row)
	return row
}

// BuildIndex constructs a secondary index on col from the table's current
// live keys, on demand. Only one index per column may exist at a time.
func (t *Table) BuildIndex(col int) error {
	idx, err := t.indexes.CreateIndex(col)
	if err != nil {
		return err
	}
	mask := onehotMask(t.N, col)
	for _, rids := range t.indexes.Primary().AllEntries() {
		for _, baseRID := range rids {
			row := t.latestRow(baseRID)
			idx.Add(project(row, mask)[0], baseRID)
		}
	}
	return nil
}

func project(row []int64, mask []bool) []int64 {
	out := make([]int64, 0, len(mask))
	for i, keep := range mask {
		if keep {
			out = append(out, row[numMetaCols+i])
		}
	}
	return out
}

// SelectLatest resolves key via the primary index and returns the most
// recent post-image's projected columns.
func (t *Table) SelectLatest(key int64, mask []bool) (Record, error) {
	baseRID, ok := t.lookupPrimary(key)
	if !ok {
		return Record{}, ErrNotFound
	}
	row := t.latestRow(baseRID)
	return Record{columns: project(row, mask)}, nil
}

// SelectVersion walks the tail chain backward |relativeVersion| hops from
// the latest record, clamping at the base, and returns that version's
// projected columns. relativeVersion must be <= 0.
func (t *Table) SelectVersion(key int64, mask []bool, relativeVersion int) (Record, error) {
	baseRID, ok := t.lookupPrimary(key)
	if !ok {
		return Record{}, ErrNotFound
	}
	_, latestRID := t.latestLocation(baseRID)

	current := latestRID
	hops := -relativeVersion
	for h := 0; h < hops; h++ {
		if current == baseRID {
			break
		}
		loc, _ := t.dir.Get(current)
		current = t.readCell(loc, colIndirection)
	}
	loc, _ := t.dir.Get(current)
	row := t.readRow(loc)
	return Record{columns: project(row, mask)}, nil
}

// Update overlays newCols (nil entries are holes, meaning "keep previous
// value") onto the latest post-image and appends a new tail record.
// newCols[Key] must be nil or equal to the current key.
func (t *Table) Update(key int64, newCols []*int64) (int64, error) {
	if len(newCols) != t.N {
		return 0, ErrSchemaViolation
	}
	if newCols[t.Key] != nil && *newCols[t.Key] != key {
		return 0, ErrSchemaViolation
	}
	baseRID, ok := t.lookupPrimary(key)
	if !ok {
		return 0, ErrNotFound
	}
	_, latestRID := t.latestLocation(baseRID)
	latestRow := t.latestRow(baseRID)

	rid := t.nextRID
	t.nextRID++
	ts := t.nextTS
	t.nextTS++

	row := make([]int64, t.numCols())
	row[colRID] = rid
	row[colIndirection] = latestRID
	row[colTimestamp] = ts

	var changed int64
	for i := 0; i < t.N; i++ {
		v := latestRow[numMetaCols+i]
		if newCols[i] != nil {
			v = *newCols[i]
			changed |= 1 << uint(i)
		}
		row[numMetaCols+i] = v
	}
	row[colSchemaEncoding] = latestRow[colSchemaEncoding] | changed

	baseLoc, _ := t.dir.Get(baseRID)
	r := t.rangeByID(baseLoc.RangeID)
	group, slot := r.AppendTail(row)

	t.dir.Put(rid, storage.Location{RangeID: r.RangeID, Kind: storage.KindTail, Group: group, Slot: slot})
	r.OverwriteCell(storage.KindBase, baseLoc.Group, baseLoc.Slot, colIndirection, rid)
	t.cache.Invalidate(baseRID)
	t.cache.Put(baseRID, row)
	return rid, nil
}

// Delete removes key's primary-index entry. Physical cells are left in
// place; nothing else references them.
func (t *Table) Delete(key int64) error {
	baseRID, ok := t.lookupPrimary(key)
	if !ok {
		return ErrNotFound
	}
	t.indexes.Primary().Remove(key, baseRID)
	return nil
}

// Increment is equivalent to Update setting column col to its current
// value plus one.
func (t *Table) Increment(key int64, col int) (int64, error) {
	if col < 0 || col >= t.N {
		return 0, ErrSchemaViolation
	}
	rec, err := t.SelectLatest(key, onehotMask(t.N, col))
	if err != nil {
		return 0, err
	}
	next := rec.Columns()[0] + 1
	newCols := make([]*int64, t.N)
	newCols[col] = &next
	return t.Update(key, newCols)
}

func onehotMask(n, col int) []bool {
	mask := make([]bool, n)
	mask[col] = true
	return mask
}

// Sum accumulates agg_col's latest value over every key in [keyLo, keyHi].
// Returns ErrEmptyRange if no key falls in that range.
func (t *Table) Sum(keyLo, keyHi int64, aggCol int) (int64, error) {
	rids := t.indexes.Primary().RangeScan(keyLo, keyHi)
	if len(rids) == 0 {
		return 0, ErrEmptyRange
	}
	mask := onehotMask(t.N, aggCol)
	var total int64
	for _, baseRID := range rids {
		row := t.latestRow(baseRID)
		total += project(row, mask)[0]
	}
	return total, nil
}

// SumVersion is Sum using select_version semantics per key.
func (t *Table) SumVersion(keyLo, keyHi int64, aggCol int, relativeVersion int) (int64, error) {
	rids := t.indexes.Primary().RangeScan(keyLo, keyHi)
	if len(rids) == 0 {
		return 0, ErrEmptyRange
	}
	mask := onehotMask(t.N, aggCol)
	var total int64
	for _, baseRID := range rids {
		current := baseRID
		_, latestRID := t.latestLocation(baseRID)
		current = latestRID
		hops := -relativeVersion
		for h := 0; h < hops; h++ {
			if current == baseRID {
				break
			}
			loc, _ := t.dir.Get(current)
			current = t.readCell(loc, colIndirection)
		}
		loc, _ := t.dir.Get(current)
		row := t.readRow(loc)
		total += project(row, mask)[0]
	}
	return total, nil
}
