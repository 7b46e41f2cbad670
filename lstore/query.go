package lstore

import (
	"github.com/go-lstore/lstore/concurrency"
	"github.com/go-lstore/lstore/engine"
)

// Query is a thin wrapper translating the public query surface's
// legacy-compatible return convention (a value, or false on failure) onto
// Table's richer error-returning primitives. A Query obtained via
// Database.Query serializes writers and allows concurrent readers around
// its table, per the engine-wide lock model; one constructed directly
// with NewQuery runs unlocked, for single-threaded embedding.
type Query struct {
	table *engine.Table
	locks *concurrency.LockManager
	name  string
}

// NewQuery constructs an unlocked Query bound to table.
func NewQuery(table *engine.Table) *Query {
	return &Query{table: table}
}

func (q *Query) readLocked(fn func()) {
	if q.locks == nil {
		fn()
		return
	}
	q.locks.AcquireRead(q.name)
	defer q.locks.ReleaseRead(q.name)
	fn()
}

func (q *Query) writeLocked(fn func()) {
	if q.locks == nil {
		fn()
		return
	}
	q.locks.AcquireWrite(q.name)
	defer q.locks.ReleaseWrite(q.name)
	fn()
}

// Insert inserts values as a new row. Returns false on a duplicate key.
func (q *Query) Insert(values ...int64) bool {
	var ok bool
	q.writeLocked(func() {
		_, err := q.table.Insert(values)
		ok = err == nil
	})
	return ok
}

// Select resolves key via keyCol's index and returns the projected latest
// record, or an empty slice if absent. Only keyCol == the table's primary
// key is guaranteed to be supported; other columns resolve through a
// secondary index if one has been built, and return empty otherwise.
func (q *Query) Select(key int64, keyCol int, mask []bool) []engine.Record {
	var recs []engine.Record
	q.readLocked(func() {
		if keyCol == q.table.Key {
			rec, err := q.table.SelectLatest(key, mask)
			if err != nil {
				return
			}
			recs = []engine.Record{rec}
			return
		}

		idx := q.table.Indexes().Get(keyCol)
		if idx == nil {
			return
		}
		for _, baseRID := range idx.Lookup(key) {
			rec, err := q.table.SelectLatestByRID(baseRID, mask)
			if err != nil {
				continue
			}
			recs = append(recs, rec)
		}
	})
	return recs
}

// SelectVersion is Select at a specific relative version, key-column
// lookups only.
func (q *Query) SelectVersion(key int64, keyCol int, mask []bool, relativeVersion int) []engine.Record {
	if keyCol != q.table.Key {
		return nil
	}
	var recs []engine.Record
	q.readLocked(func() {
		rec, err := q.table.SelectVersion(key, mask, relativeVersion)
		if err != nil {
			return
		}
		recs = []engine.Record{rec}
	})
	return recs
}

// Update overlays newColumns (holes as nil) onto key's latest post-image.
// Returns false if key is absent or the key column would change.
func (q *Query) Update(key int64, newColumns []*int64) bool {
	var ok bool
	q.writeLocked(func() {
		_, err := q.table.Update(key, newColumns)
		ok = err == nil
	})
	return ok
}

// Delete removes key. Returns false if key is absent.
func (q *Query) Delete(key int64) bool {
	var ok bool
	q.writeLocked(func() {
		ok = q.table.Delete(key) == nil
	})
	return ok
}

// Sum accumulates aggCol's latest value over [keyLo, keyHi]. ok is false
// if the range contains no key.
func (q *Query) Sum(keyLo, keyHi int64, aggCol int) (sum int64, ok bool) {
	q.readLocked(func() {
		v, err := q.table.Sum(keyLo, keyHi, aggCol)
		if err == nil {
			sum, ok = v, true
		}
	})
	return sum, ok
}

// SumVersion is Sum using select_version semantics per key.
func (q *Query) SumVersion(keyLo, keyHi int64, aggCol, relativeVersion int) (sum int64, ok bool) {
	q.readLocked(func() {
		v, err := q.table.SumVersion(keyLo, keyHi, aggCol, relativeVersion)
		if err == nil {
			sum, ok = v, true
		}
	})
	return sum, ok
}

// Increment adds one to col for key. Returns false if key is absent.
func (q *Query) Increment(key int64, col int) bool {
	var ok bool
	q.writeLocked(func() {
		_, err := q.table.Increment(key, col)
		ok = err == nil
	})
	return ok
}
