package storage

// EncodePage writes a page's written-cell prefix.
func EncodePage(w *BinaryWriter, p *Page) {
	w.WriteInt64Slice(p.RawCells())
}

// DecodePage reads back a page written by EncodePage.
func DecodePage(r *BinaryReader) (*Page, error) {
	cells, err := r.ReadInt64Slice()
	if err != nil {
		return nil, err
	}
	if len(cells) > PageCapacity {
		return nil, ErrCorrupt
	}
	return LoadPage(cells), nil
}

// EncodePageRange writes a range's base and tail page groups.
func EncodePageRange(w *BinaryWriter, r *PageRange) {
	w.WriteUint32(r.RangeID)
	w.WriteUint32(uint32(r.numCols))
	w.WriteUint32(uint32(r.BaseGroupCount()))
	for i := 0; i < r.BaseGroupCount(); i++ {
		for _, p := range r.RawBaseGroup(i) {
			EncodePage(w, p)
		}
	}
	w.WriteUint32(uint32(r.TailGroupCount()))
	for i := 0; i < r.TailGroupCount(); i++ {
		for _, p := range r.RawTailGroup(i) {
			EncodePage(w, p)
		}
	}
}

// DecodePageRange reads back a range written by EncodePageRange.
func DecodePageRange(rd *BinaryReader) (*PageRange, error) {
	rangeID, err := rd.ReadUint32()
	if err != nil {
		return nil, err
	}
	numCols, err := rd.ReadUint32()
	if err != nil {
		return nil, err
	}
	baseCount, err := rd.ReadUint32()
	if err != nil {
		return nil, err
	}
	baseGroups := make([][]*Page, baseCount)
	for i := range baseGroups {
		group := make([]*Page, numCols)
		for c := range group {
			p, err := DecodePage(rd)
			if err != nil {
				return nil, err
			}
			group[c] = p
		}
		baseGroups[i] = group
	}
	tailCount, err := rd.ReadUint32()
	if err != nil {
		return nil, err
	}
	tailGroups := make([][]*Page, tailCount)
	for i := range tailGroups {
		group := make([]*Page, numCols)
		for c := range group {
			p, err := DecodePage(rd)
			if err != nil {
				return nil, err
			}
			group[c] = p
		}
		tailGroups[i] = group
	}
	return LoadPageRange(rangeID, int(numCols), baseGroups, tailGroups), nil
}

// EncodeDirectory writes every RID->Location entry in the directory.
func EncodeDirectory(w *BinaryWriter, d *PageDirectory) {
	w.WriteUint32(uint32(d.Len()))
	d.Entries(func(rid int64, loc Location) {
		w.WriteInt64(rid)
		w.WriteUint32(loc.RangeID)
		w.WriteUint32(uint32(loc.Kind))
		w.WriteUint32(loc.Group)
		w.WriteUint32(uint32(loc.Slot))
	})
}

// DecodeDirectory reads back a directory written by EncodeDirectory.
func DecodeDirectory(r *BinaryReader) (*PageDirectory, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	d := NewPageDirectory()
	for i := uint32(0); i < n; i++ {
		rid, err := r.ReadInt64()
		if err != nil {
			return nil, err
		}
		rangeID, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		kind, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		group, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		slot, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		d.Put(rid, Location{RangeID: rangeID, Kind: PageKind(kind), Group: group, Slot: int(slot)})
	}
	return d, nil
}
