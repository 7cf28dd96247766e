package engine

// Dir is a directory iteration context. Positions 0 and 1 are the "."
// and ".." pseudo-entries; real entries follow in name order.
type Dir struct {
	e     *Engine
	n     *node
	names []string
	pos   uint32
}

// OpenDir opens an iteration context over the directory at path.
func (e *Engine) OpenDir(path string) (*Dir, error) {
	if !e.mounted {
		return nil, ErrInval
	}
	n, eerr := e.lookup(path)
	if eerr != 0 {
		return nil, eerr
	}
	if !n.dir {
		return nil, ErrNotDir
	}
	return &Dir{e: e, n: n, names: sortedChildNames(n)}, nil
}

// Read fills info (and the attribute list) with the next entry.
// Returns false with no error when the iteration is exhausted.
func (d *Dir) Read(info *Info, attrs []Attr) (bool, error) {
	if d.n == nil || !d.e.mounted {
		return false, ErrBadF
	}

	for {
		switch {
		case d.pos == 0:
			d.pos++
			*info = Info{Name: ".", Dir: true}
			return true, nil
		case d.pos == 1:
			d.pos++
			*info = Info{Name: "..", Dir: true}
			return true, nil
		}

		idx := d.pos - 2
		if idx >= uint32(len(d.names)) {
			return false, nil
		}
		d.pos++

		// Entries removed since the cursor was opened are skipped.
		n, ok := d.n.children[d.names[idx]]
		if !ok {
			continue
		}
		*info = Info{Name: n.name, Size: uint32(len(n.content)), Dir: n.dir, ID: n.id}
		fillAttrs(n, attrs)
		return true, nil
	}
}

// Seek positions the cursor at the given entry index, counting the two
// pseudo-entries.
func (d *Dir) Seek(pos uint32) error {
	if d.n == nil || !d.e.mounted {
		return ErrBadF
	}
	d.pos = pos
	return nil
}

// Tell returns the cursor position.
func (d *Dir) Tell() uint32 {
	return d.pos
}

// Close releases the iteration context.
func (d *Dir) Close() error {
	d.n = nil
	return nil
}
