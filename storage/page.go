// Package storage implements the physical layout of an lstore table: fixed
// capacity pages of 64-bit cells, grouped into page ranges, addressed by a
// page directory, and serialized whole on Database close/open.
package storage

// PageCapacity is the fixed number of cells a Page holds (the design-time
// constant C of spec.md §4.1).
const PageCapacity = 512

// Page is a fixed-capacity column slab of 64-bit cells with a write cursor.
// Pages are never deleted or compacted; once a cell is written it is never
// rewritten in place. The sole exception — a base record's INDIRECTION
// cell — goes through Overwrite, never through a second Write.
type Page struct {
	cells [PageCapacity]int64
	n     int
}

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{}
}

// HasCapacity reports whether the page can accept another cell.
func (p *Page) HasCapacity() bool {
	return p.n < PageCapacity
}

// Write appends a cell and returns its slot. Callers must check
// HasCapacity first; a PageRange always does, so overflow here indicates
// a bug in the caller rather than ordinary exhaustion.
func (p *Page) Write(v int64) int {
	if p.n >= PageCapacity {
		panic("storage: page write with no remaining capacity")
	}
	slot := p.n
	p.cells[slot] = v
	p.n++
	return slot
}

// Read returns the cell at slot. Panics if slot is out of the written
// range — callers only ever reach this via RIDs resolved through the
// PageDirectory, so an out-of-range slot means directory corruption.
func (p *Page) Read(slot int) int64 {
	if slot < 0 || slot >= p.n {
		panic("storage: page read out of written range")
	}
	return p.cells[slot]
}

// Overwrite replaces the cell at slot with v. Used on every update of a
// base record, to retarget its INDIRECTION cell at the newest tail RID; no
// other cell in the engine is ever rewritten after being written.
func (p *Page) Overwrite(slot int, v int64) {
	if slot < 0 || slot >= p.n {
		panic("storage: page overwrite out of written range")
	}
	p.cells[slot] = v
}

// Len returns the number of cells written so far.
func (p *Page) Len() int {
	return p.n
}

// RawCells exposes the written prefix of the cell array for serialization.
func (p *Page) RawCells() []int64 {
	return p.cells[:p.n]
}

// LoadPage reconstructs a page from a previously-serialized cell slice,
// used by the snapshot reader on Database.Open. Panics if cells is longer
// than PageCapacity, which would indicate a corrupt snapshot; callers in
// the snapshot package catch that as ErrCorrupt before calling this.
func LoadPage(cells []int64) *Page {
	if len(cells) > PageCapacity {
		panic("storage: serialized page exceeds capacity")
	}
	p := &Page{}
	p.n = copy(p.cells[:], cells)
	return p
}
