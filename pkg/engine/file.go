package engine

// File open flags, mirroring the engine's native flag space.
const (
	ORdOnly uint32 = 1
	OWrOnly uint32 = 2
	ORdWr   uint32 = 3
	OCreat  uint32 = 0x0100
	OExcl   uint32 = 0x0200
	OTrunc  uint32 = 0x0400
	OAppend uint32 = 0x0800
)

// Seek whence values.
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// Attr is one entry of a combined attribute list. On open, stat and
// directory reads the engine copies each present attribute into Value
// (up to its length) in the same pass that resolves the entry, so a
// caller gets the base info and all its metadata in one lookup.
type Attr struct {
	// Tag identifies the attribute
	Tag uint8

	// Value receives the attribute bytes; its length bounds the copy
	Value []byte
}

// Info is the engine-native description of one entry.
type Info struct {
	Name string
	Size uint32
	Dir  bool
	ID   uint32
}

// File is an open file context. It is owned by the caller and must be
// closed to release it; content changes are volatile until Sync or
// Close commits them.
type File struct {
	e     *Engine
	n     *node
	pos   uint32
	flags uint32
}

// OpenFile opens (and with OCreat, creates) the file at path. The
// attribute list is filled from the entry's attributes in the same
// operation.
func (e *Engine) OpenFile(path string, flags uint32, attrs []Attr) (*File, error) {
	if !e.mounted {
		return nil, ErrInval
	}
	if flags&ORdWr == 0 {
		return nil, ErrInval
	}

	parent, name, eerr := e.lookupParent(path)
	if eerr != 0 {
		return nil, eerr
	}

	n, ok := parent.children[name]
	switch {
	case ok && n.dir:
		return nil, ErrIsDir
	case ok && flags&OExcl != 0:
		return nil, ErrExist
	case !ok && flags&OCreat == 0:
		return nil, ErrNoEnt
	case !ok:
		n = e.newNode(name, false)
		n.parent = parent
		parent.children[name] = n
		e.dirty = true
	}

	if flags&OTrunc != 0 && flags&OWrOnly != 0 && len(n.content) > 0 {
		n.content = nil
		e.dirty = true
	}

	fillAttrs(n, attrs)

	return &File{e: e, n: n, flags: flags}, nil
}

func (f *File) check() Error {
	if f.n == nil || !f.e.mounted {
		return ErrBadF
	}
	return 0
}

// Read copies up to len(buf) bytes from the current position and
// returns the count; 0 at end of file.
func (f *File) Read(buf []byte) (int, error) {
	if eerr := f.check(); eerr != 0 {
		return 0, eerr
	}
	if f.flags&ORdOnly == 0 {
		return 0, ErrBadF
	}
	if f.pos >= uint32(len(f.n.content)) {
		return 0, nil
	}
	n := copy(buf, f.n.content[f.pos:])
	f.pos += uint32(n)
	return n, nil
}

// Write copies len(buf) bytes at the current position (end of file
// with OAppend), growing the file as needed.
func (f *File) Write(buf []byte) (int, error) {
	if eerr := f.check(); eerr != 0 {
		return 0, eerr
	}
	if f.flags&OWrOnly == 0 {
		return 0, ErrBadF
	}
	if f.flags&OAppend != 0 {
		f.pos = uint32(len(f.n.content))
	}
	end := uint64(f.pos) + uint64(len(buf))
	if end > FileMax {
		return 0, ErrFBig
	}
	if end > uint64(len(f.n.content)) {
		grown := make([]byte, end)
		copy(grown, f.n.content)
		f.n.content = grown
	}
	copy(f.n.content[f.pos:], buf)
	f.pos = uint32(end)
	f.e.dirty = true
	return len(buf), nil
}

// Seek repositions the file offset and returns the new position.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if eerr := f.check(); eerr != 0 {
		return 0, eerr
	}
	var base int64
	switch whence {
	case SeekSet:
		base = 0
	case SeekCur:
		base = int64(f.pos)
	case SeekEnd:
		base = int64(len(f.n.content))
	default:
		return 0, ErrInval
	}
	pos := base + offset
	if pos < 0 || pos > FileMax {
		return 0, ErrInval
	}
	f.pos = uint32(pos)
	return pos, nil
}

// Tell returns the current position.
func (f *File) Tell() (int64, error) {
	if eerr := f.check(); eerr != 0 {
		return 0, eerr
	}
	return int64(f.pos), nil
}

// Size returns the current content size.
func (f *File) Size() (int64, error) {
	if eerr := f.check(); eerr != 0 {
		return 0, eerr
	}
	return int64(len(f.n.content)), nil
}

// Truncate grows (zero-filled) or shrinks the file to size.
func (f *File) Truncate(size uint32) error {
	if eerr := f.check(); eerr != 0 {
		return eerr
	}
	if f.flags&OWrOnly == 0 {
		return ErrBadF
	}
	if size == uint32(len(f.n.content)) {
		return nil
	}
	resized := make([]byte, size)
	copy(resized, f.n.content)
	f.n.content = resized
	f.e.dirty = true
	return nil
}

// Sync commits outstanding volume changes to storage.
func (f *File) Sync() error {
	if eerr := f.check(); eerr != 0 {
		return eerr
	}
	if !f.e.dirty {
		return nil
	}
	return f.e.commit()
}

// Close syncs and releases the file context.
func (f *File) Close() error {
	err := f.Sync()
	f.n = nil
	return err
}

// ID returns the engine-native identifier of the open file.
func (f *File) ID() uint32 {
	if f.n == nil {
		return 0
	}
	return f.n.id
}

// Name returns the entry name of the open file.
func (f *File) Name() string {
	if f.n == nil {
		return ""
	}
	return f.n.name
}

// GetAttr copies the attribute into buf and returns the full value
// size, or ErrNoAttr if the tag is absent.
func (f *File) GetAttr(tag uint8, buf []byte) (int, error) {
	if eerr := f.check(); eerr != 0 {
		return 0, eerr
	}
	value, ok := f.n.attrs[tag]
	if !ok {
		return 0, ErrNoAttr
	}
	copy(buf, value)
	return len(value), nil
}

// SetAttr stores the attribute. The change is buffered with the file
// and committed on Sync or Close.
func (f *File) SetAttr(tag uint8, value []byte) error {
	if eerr := f.check(); eerr != 0 {
		return eerr
	}
	if len(value) > AttrMax {
		return ErrNoSpc
	}
	f.n.attrs[tag] = append([]byte(nil), value...)
	f.e.dirty = true
	return nil
}

// RemoveAttr deletes the attribute, or returns ErrNoAttr if absent.
func (f *File) RemoveAttr(tag uint8) error {
	if eerr := f.check(); eerr != 0 {
		return eerr
	}
	if _, ok := f.n.attrs[tag]; !ok {
		return ErrNoAttr
	}
	delete(f.n.attrs, tag)
	f.e.dirty = true
	return nil
}

// fillAttrs copies each present attribute into its list slot.
func fillAttrs(n *node, attrs []Attr) {
	for _, attr := range attrs {
		if value, ok := n.attrs[attr.Tag]; ok {
			copy(attr.Value, value)
		}
	}
}

// EnumAttrs returns the open file's attributes in tag order.
func (f *File) EnumAttrs() ([]Attr, error) {
	if eerr := f.check(); eerr != 0 {
		return nil, eerr
	}
	attrs := make([]Attr, 0, len(f.n.attrs))
	for _, tag := range sortedAttrTags(f.n.attrs) {
		attrs = append(attrs, Attr{Tag: tag, Value: append([]byte(nil), f.n.attrs[tag]...)})
	}
	return attrs, nil
}
