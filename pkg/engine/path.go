package engine

// Stat fills info (and the attribute list) for the entry at path,
// resolving the base entry and its attributes in one pass.
func (e *Engine) Stat(path string, info *Info, attrs []Attr) error {
	if !e.mounted {
		return ErrInval
	}
	n, eerr := e.lookup(path)
	if eerr != 0 {
		return eerr
	}
	*info = Info{Name: n.name, Size: uint32(len(n.content)), Dir: n.dir, ID: n.id}
	fillAttrs(n, attrs)
	return nil
}

// Mkdir creates a directory. The parent must already exist.
func (e *Engine) Mkdir(path string) error {
	if !e.mounted {
		return ErrInval
	}
	parent, name, eerr := e.lookupParent(path)
	if eerr != 0 {
		return eerr
	}
	if _, ok := parent.children[name]; ok {
		return ErrExist
	}
	n := e.newNode(name, true)
	n.parent = parent
	parent.children[name] = n
	e.dirty = true
	return e.commit()
}

// Remove deletes a file, or an empty directory.
func (e *Engine) Remove(path string) error {
	if !e.mounted {
		return ErrInval
	}
	n, eerr := e.lookup(path)
	if eerr != 0 {
		return eerr
	}
	if n.parent == nil {
		return ErrInval
	}
	if n.dir && len(n.children) > 0 {
		return ErrNotEmpty
	}
	delete(n.parent.children, n.name)
	n.parent = nil
	e.dirty = true
	return e.commit()
}

// Rename moves an entry. An existing destination is replaced when the
// types match (a destination directory must be empty).
func (e *Engine) Rename(oldPath, newPath string) error {
	if !e.mounted {
		return ErrInval
	}
	n, eerr := e.lookup(oldPath)
	if eerr != 0 {
		return eerr
	}
	if n.parent == nil {
		return ErrInval
	}
	parent, name, eerr := e.lookupParent(newPath)
	if eerr != 0 {
		return eerr
	}

	if existing, ok := parent.children[name]; ok {
		if existing == n {
			return nil
		}
		if existing.dir != n.dir {
			if existing.dir {
				return ErrIsDir
			}
			return ErrNotDir
		}
		if existing.dir && len(existing.children) > 0 {
			return ErrNotEmpty
		}
		existing.parent = nil
	}

	// Moving a directory under itself would orphan the subtree.
	for p := parent; p != nil; p = p.parent {
		if p == n {
			return ErrInval
		}
	}

	delete(n.parent.children, n.name)
	n.name = name
	n.parent = parent
	parent.children[name] = n
	e.dirty = true
	return e.commit()
}

// GetAttr copies the attribute of the entry at path into buf and
// returns the full value size, or ErrNoAttr if the tag is absent.
func (e *Engine) GetAttr(path string, tag uint8, buf []byte) (int, error) {
	if !e.mounted {
		return 0, ErrInval
	}
	n, eerr := e.lookup(path)
	if eerr != 0 {
		return 0, eerr
	}
	value, ok := n.attrs[tag]
	if !ok {
		return 0, ErrNoAttr
	}
	copy(buf, value)
	return len(value), nil
}

// SetAttr stores an attribute on the entry at path and commits.
func (e *Engine) SetAttr(path string, tag uint8, value []byte) error {
	if !e.mounted {
		return ErrInval
	}
	if len(value) > AttrMax {
		return ErrNoSpc
	}
	n, eerr := e.lookup(path)
	if eerr != 0 {
		return eerr
	}
	n.attrs[tag] = append([]byte(nil), value...)
	e.dirty = true
	return e.commit()
}

// RemoveAttr deletes an attribute from the entry at path and commits.
func (e *Engine) RemoveAttr(path string, tag uint8) error {
	if !e.mounted {
		return ErrInval
	}
	n, eerr := e.lookup(path)
	if eerr != 0 {
		return eerr
	}
	if _, ok := n.attrs[tag]; !ok {
		return ErrNoAttr
	}
	delete(n.attrs, tag)
	e.dirty = true
	return e.commit()
}

// EnumAttrs returns the attributes of the entry at path in tag order.
func (e *Engine) EnumAttrs(path string) ([]Attr, error) {
	if !e.mounted {
		return nil, ErrInval
	}
	n, eerr := e.lookup(path)
	if eerr != 0 {
		return nil, eerr
	}
	attrs := make([]Attr, 0, len(n.attrs))
	for _, tag := range sortedAttrTags(n.attrs) {
		attrs = append(attrs, Attr{Tag: tag, Value: append([]byte(nil), n.attrs[tag]...)})
	}
	return attrs, nil
}
