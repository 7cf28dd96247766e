package flint

import (
	"bytes"

	"github.com/flintfs/flintfs/internal/logger"
	"github.com/flintfs/flintfs/pkg/engine"
	"github.com/flintfs/flintfs/pkg/vfs"
)

// sysAttrs is a combined attribute list covering every system tag,
// passed to the engine so one lookup resolves the entry and all its
// metadata. Absent tags leave their buffer zeroed, which decodes to
// the tag's default value.
type sysAttrs struct {
	mtime [8]byte
	rdAce [1]byte
	wrAce [1]byte
	comp  [8]byte
	fattr [1]byte
}

func (s *sysAttrs) list() []engine.Attr {
	return []engine.Attr{
		{Tag: uint8(vfs.TagModifiedTime), Value: s.mtime[:]},
		{Tag: uint8(vfs.TagReadAce), Value: s.rdAce[:]},
		{Tag: uint8(vfs.TagWriteAce), Value: s.wrAce[:]},
		{Tag: uint8(vfs.TagCompression), Value: s.comp[:]},
		{Tag: uint8(vfs.TagFileAttributes), Value: s.fattr[:]},
	}
}

func (s *sysAttrs) mtimeValue() vfs.TimeStamp { return vfs.DecodeTime(s.mtime[:]) }

func (s *sysAttrs) aclValue() vfs.ACL {
	return vfs.ACL{
		ReadAccess:  vfs.DecodeRole(s.rdAce[:]),
		WriteAccess: vfs.DecodeRole(s.wrAce[:]),
	}
}

func (s *sysAttrs) compressionValue() vfs.Compression {
	return vfs.DecodeCompression(s.comp[:])
}

func (s *sysAttrs) fileAttributesValue() vfs.FileAttributes {
	return vfs.DecodeFileAttributes(s.fattr[:])
}

// fillStat assembles a Stat from engine info plus the decoded system
// attributes. A compressed file reports its original size and gains
// the synthetic compressed flag; a directory gains the directory flag.
func (s *sysAttrs) fillStat(st *vfs.Stat, info *engine.Info) {
	*st = vfs.Stat{
		Name:        info.Name,
		Size:        info.Size,
		ID:          info.ID,
		MTime:       s.mtimeValue(),
		ACL:         s.aclValue(),
		Attr:        s.fileAttributesValue(),
		Compression: s.compressionValue(),
	}
	if info.Dir {
		st.Attr |= vfs.AttrDirectory
	}
	if st.Compression.Type != vfs.CompressionNone {
		st.Attr |= vfs.AttrCompressed
		st.Size = st.Compression.OriginalSize
	}
}

// cachedAttr returns the encoded cached value of a system tag on an
// open descriptor.
func (fd *fileDescriptor) cachedAttr(tag vfs.AttributeTag) []byte {
	switch tag {
	case vfs.TagModifiedTime:
		return vfs.EncodeTime(fd.mtime)
	case vfs.TagReadAce:
		return vfs.EncodeRole(fd.acl.ReadAccess)
	case vfs.TagWriteAce:
		return vfs.EncodeRole(fd.acl.WriteAccess)
	case vfs.TagCompression:
		return vfs.EncodeCompression(fd.compression)
	case vfs.TagFileAttributes:
		return vfs.EncodeFileAttributes(fd.attr)
	default:
		return nil
	}
}

// storeCachedAttr updates a cached system tag and marks it dirty.
// Storing a value equal to the cached one is a no-op, so idle metadata
// rewrites never reach the device.
func (fd *fileDescriptor) storeCachedAttr(tag vfs.AttributeTag, value []byte) {
	if bytes.Equal(fd.cachedAttr(tag), value) {
		return
	}
	switch tag {
	case vfs.TagModifiedTime:
		fd.mtime = vfs.DecodeTime(value)
		fd.dirty |= dirtyMTime
	case vfs.TagReadAce:
		fd.acl.ReadAccess = vfs.DecodeRole(value)
		fd.dirty |= dirtyReadAce
	case vfs.TagWriteAce:
		fd.acl.WriteAccess = vfs.DecodeRole(value)
		fd.dirty |= dirtyWriteAce
	case vfs.TagCompression:
		fd.compression = vfs.DecodeCompression(value)
		fd.dirty |= dirtyCompression
	case vfs.TagFileAttributes:
		fd.attr = vfs.DecodeFileAttributes(value)
		fd.dirty |= dirtyFileAttributes
	}
}

// flushMeta writes dirty cached attributes back to the engine. Bits
// clear as each write succeeds; the first failure is returned with the
// remaining bits still set.
func (fs *FileSystem) flushMeta(fd *fileDescriptor) error {
	flush := func(bit uint8, tag vfs.AttributeTag) error {
		if fd.dirty&bit == 0 {
			return nil
		}
		if err := fd.file.SetAttr(uint8(tag), fd.cachedAttr(tag)); err != nil {
			return translateError(err, fd.name)
		}
		fd.dirty &^= bit
		return nil
	}
	if err := flush(dirtyMTime, vfs.TagModifiedTime); err != nil {
		return err
	}
	if err := flush(dirtyReadAce, vfs.TagReadAce); err != nil {
		return err
	}
	if err := flush(dirtyWriteAce, vfs.TagWriteAce); err != nil {
		return err
	}
	if err := flush(dirtyCompression, vfs.TagCompression); err != nil {
		return err
	}
	return flush(dirtyFileAttributes, vfs.TagFileAttributes)
}

// checkAttrParams validates tag/value size constraints shared by the
// path and handle attribute setters. System tags have fixed sizes;
// user tag sizes are bounded only by the engine limit.
func checkAttrParams(tag vfs.AttributeTag, value []byte) error {
	if len(value) > vfs.AttributeSizeMax {
		return vfs.NewError(vfs.ErrTooBig, "")
	}
	if size := vfs.TagSize(tag); size != 0 && len(value) != size {
		return vfs.NewError(vfs.ErrBadParam, "")
	}
	return nil
}

// SetXAttr sets (or with a nil value removes) an attribute on the
// entry at path. System attributes cannot be removed.
func (fs *FileSystem) SetXAttr(path string, tag vfs.AttributeTag, value []byte) error {
	if err := fs.checkMounted(); err != nil {
		return err
	}
	if err := checkPath(path); err != nil {
		return err
	}

	if value == nil {
		if !tag.IsUser() {
			return vfs.NewError(vfs.ErrNotSupported, path)
		}
		return translateError(fs.eng.RemoveAttr(path, uint8(tag)), path)
	}

	if err := checkAttrParams(tag, value); err != nil {
		return err
	}
	if err := translateError(fs.eng.SetAttr(path, uint8(tag), value), path); err != nil {
		return err
	}

	if isRootPath(path) {
		switch tag {
		case vfs.TagReadAce:
			fs.rootACL.ReadAccess = vfs.DecodeRole(value)
		case vfs.TagWriteAce:
			fs.rootACL.WriteAccess = vfs.DecodeRole(value)
		}
	}
	return nil
}

// GetXAttr reads an attribute of the entry at path into buf and
// returns the full value size. A buffer shorter than a system tag's
// fixed size gets no data, just the required size.
func (fs *FileSystem) GetXAttr(path string, tag vfs.AttributeTag, buf []byte) (int, error) {
	if err := fs.checkMounted(); err != nil {
		return 0, err
	}
	if err := checkPath(path); err != nil {
		return 0, err
	}

	if size := vfs.TagSize(tag); size != 0 && len(buf) < size {
		return size, nil
	}

	// The root ACL is served from the adapter cache.
	if isRootPath(path) {
		switch tag {
		case vfs.TagReadAce:
			return copy(buf, vfs.EncodeRole(fs.rootACL.ReadAccess)), nil
		case vfs.TagWriteAce:
			return copy(buf, vfs.EncodeRole(fs.rootACL.WriteAccess)), nil
		}
	}

	n, err := fs.eng.GetAttr(path, uint8(tag), buf)
	if err != nil {
		return 0, translateError(err, path)
	}
	return n, nil
}

// EnumXAttr enumerates the attributes of the entry at path in tag
// order until fn returns false.
func (fs *FileSystem) EnumXAttr(path string, fn vfs.AttributeEnumFunc) error {
	if err := fs.checkMounted(); err != nil {
		return err
	}
	if err := checkPath(path); err != nil {
		return err
	}
	attrs, err := fs.eng.EnumAttrs(path)
	if err != nil {
		return translateError(err, path)
	}
	for _, attr := range attrs {
		if !fn(vfs.AttributeTag(attr.Tag), attr.Value) {
			break
		}
	}
	return nil
}

// FSetXAttr sets (or with a nil value removes) an attribute on an open
// file. System attribute writes go to the descriptor cache and reach
// the device on flush or close.
func (fs *FileSystem) FSetXAttr(h vfs.FileHandle, tag vfs.AttributeTag, value []byte) error {
	fd, err := fs.getFD(h)
	if err != nil {
		return err
	}

	if value == nil {
		if !tag.IsUser() {
			return vfs.NewError(vfs.ErrNotSupported, fd.name)
		}
		return translateError(fd.file.RemoveAttr(uint8(tag)), fd.name)
	}

	if err := checkAttrParams(tag, value); err != nil {
		return err
	}

	if tag.IsUser() {
		return translateError(fd.file.SetAttr(uint8(tag), value), fd.name)
	}

	fd.storeCachedAttr(tag, value)
	if fd.isRoot {
		switch tag {
		case vfs.TagReadAce:
			fs.rootACL.ReadAccess = vfs.DecodeRole(value)
		case vfs.TagWriteAce:
			fs.rootACL.WriteAccess = vfs.DecodeRole(value)
		}
	}
	return nil
}

// FGetXAttr reads an attribute of an open file into buf and returns
// the full value size. System tags come from the descriptor cache, so
// pending changes are visible before they hit the device.
func (fs *FileSystem) FGetXAttr(h vfs.FileHandle, tag vfs.AttributeTag, buf []byte) (int, error) {
	fd, err := fs.getFD(h)
	if err != nil {
		return 0, err
	}

	if size := vfs.TagSize(tag); size != 0 {
		if len(buf) < size {
			return size, nil
		}
		return copy(buf, fd.cachedAttr(tag)), nil
	}

	n, err := fd.file.GetAttr(uint8(tag), buf)
	if err != nil {
		return 0, translateError(err, fd.name)
	}
	return n, nil
}

// FEnumXAttr enumerates the attributes of an open file in tag order
// until fn returns false, substituting cached values for system tags.
func (fs *FileSystem) FEnumXAttr(h vfs.FileHandle, fn vfs.AttributeEnumFunc) error {
	fd, err := fs.getFD(h)
	if err != nil {
		return err
	}
	attrs, err := fd.file.EnumAttrs()
	if err != nil {
		return translateError(err, fd.name)
	}
	for _, attr := range attrs {
		tag := vfs.AttributeTag(attr.Tag)
		value := attr.Value
		if !tag.IsUser() {
			if cached := fd.cachedAttr(tag); cached != nil {
				value = cached
			}
		}
		if !fn(tag, value) {
			break
		}
	}
	return nil
}

// pathReadOnly reports whether the entry at path carries the read-only
// flag. A missing entry or attribute reads as writable; lookup errors
// other than absence are logged and treated the same so the caller's
// operation can surface the real failure itself.
func (fs *FileSystem) pathReadOnly(path string) bool {
	var buf [1]byte
	_, err := fs.eng.GetAttr(path, uint8(vfs.TagFileAttributes), buf[:])
	if err != nil {
		if err != engine.ErrNoAttr && err != engine.ErrNoEnt {
			logger.Debug("attribute probe failed for %q: %v", path, err)
		}
		return false
	}
	return vfs.DecodeFileAttributes(buf[:])&vfs.AttrReadOnly != 0
}
