package flint

import (
	"strings"

	"github.com/flintfs/flintfs/pkg/engine"
	"github.com/flintfs/flintfs/pkg/vfs"
)

// mapOpenFlags converts unified open flags to engine-native ones.
// Flags with no engine equivalent fail rather than being dropped.
func mapOpenFlags(flags vfs.OpenFlags) (uint32, error) {
	var native uint32
	if flags.Has(vfs.OpenRead) {
		native |= engine.ORdOnly
	}
	if flags.Has(vfs.OpenWrite) {
		native |= engine.OWrOnly
	}
	if flags.Has(vfs.OpenCreate) {
		native |= engine.OCreat
	}
	if flags.Has(vfs.OpenAppend) {
		native |= engine.OAppend
	}
	if flags.Has(vfs.OpenTruncate) {
		native |= engine.OTrunc
	}
	flags &^= vfs.OpenRead | vfs.OpenWrite | vfs.OpenCreate | vfs.OpenAppend | vfs.OpenTruncate
	if flags != 0 {
		return 0, vfs.NewError(vfs.ErrNotSupported, "")
	}
	return native, nil
}

// Open opens the file at path and returns its handle. Write access to
// an entry carrying the read-only flag is refused before the engine is
// asked to open anything.
func (fs *FileSystem) Open(path string, flags vfs.OpenFlags) (vfs.FileHandle, error) {
	if err := fs.checkMounted(); err != nil {
		return 0, err
	}
	if err := checkPath(path); err != nil {
		return 0, err
	}
	native, err := mapOpenFlags(flags)
	if err != nil {
		return 0, err
	}

	if flags.Has(vfs.OpenWrite) && fs.pathReadOnly(path) {
		return 0, vfs.NewError(vfs.ErrReadOnly, path)
	}

	h, err := fs.allocFD()
	if err != nil {
		return 0, err
	}
	fd := fs.fds[h-HandleMin]

	var attrs sysAttrs
	file, err := fs.eng.OpenFile(path, native, attrs.list())
	if err != nil {
		fs.releaseFD(h)
		return 0, translateError(err, path)
	}

	fd.file = file
	fd.name = baseName(path)
	fd.mtime = attrs.mtimeValue()
	fd.acl = attrs.aclValue()
	fd.compression = attrs.compressionValue()
	fd.attr = attrs.fileAttributesValue()
	fd.write = flags.Has(vfs.OpenWrite)
	fd.isRoot = isRootPath(path)

	if flags.Has(vfs.OpenCreate) && fd.mtime == 0 {
		fd.touch()
	}
	if flags.Has(vfs.OpenTruncate) {
		fd.touch()
	}
	return h, nil
}

// Close flushes pending metadata, closes the engine file and releases
// the handle. The handle is dead afterwards even when flushing failed.
func (fs *FileSystem) Close(h vfs.FileHandle) error {
	fd, err := fs.getFD(h)
	if err != nil {
		return err
	}

	flushErr := fs.flushMeta(fd)
	closeErr := translateError(fd.file.Close(), fd.name)
	fs.releaseFD(h)

	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// Read copies up to len(buf) bytes from the current position and
// returns the count; 0 at end of file.
func (fs *FileSystem) Read(h vfs.FileHandle, buf []byte) (int, error) {
	fd, err := fs.getFD(h)
	if err != nil {
		return 0, err
	}
	n, err := fd.file.Read(buf)
	if err != nil {
		return 0, translateError(err, fd.name)
	}
	return n, nil
}

// Write copies len(buf) bytes at the current position and stamps the
// cached modification time. Handles opened without write access fail
// here; the engine is never asked.
func (fs *FileSystem) Write(h vfs.FileHandle, buf []byte) (int, error) {
	fd, err := fs.getFD(h)
	if err != nil {
		return 0, err
	}
	if !fd.write {
		return 0, vfs.NewError(vfs.ErrReadOnly, fd.name)
	}
	n, err := fd.file.Write(buf)
	if err != nil {
		return 0, translateError(err, fd.name)
	}
	fd.touch()
	return n, nil
}

// Seek repositions the file offset and returns the new position.
func (fs *FileSystem) Seek(h vfs.FileHandle, offset int64, origin vfs.SeekOrigin) (int64, error) {
	fd, err := fs.getFD(h)
	if err != nil {
		return 0, err
	}
	var whence int
	switch origin {
	case vfs.SeekStart:
		whence = engine.SeekSet
	case vfs.SeekCurrent:
		whence = engine.SeekCur
	case vfs.SeekEnd:
		whence = engine.SeekEnd
	default:
		return 0, vfs.NewError(vfs.ErrBadParam, fd.name)
	}
	pos, err := fd.file.Seek(offset, whence)
	if err != nil {
		return 0, translateError(err, fd.name)
	}
	return pos, nil
}

// Tell returns the current file position.
func (fs *FileSystem) Tell(h vfs.FileHandle) (int64, error) {
	fd, err := fs.getFD(h)
	if err != nil {
		return 0, err
	}
	pos, err := fd.file.Tell()
	if err != nil {
		return 0, translateError(err, fd.name)
	}
	return pos, nil
}

// Eof reports whether the position is at (or past) the end of file.
func (fs *FileSystem) Eof(h vfs.FileHandle) (bool, error) {
	fd, err := fs.getFD(h)
	if err != nil {
		return false, err
	}
	pos, err := fd.file.Tell()
	if err != nil {
		return false, translateError(err, fd.name)
	}
	size, err := fd.file.Size()
	if err != nil {
		return false, translateError(err, fd.name)
	}
	return pos >= size, nil
}

// Truncate grows (zero-filled) or shrinks the file to size.
func (fs *FileSystem) Truncate(h vfs.FileHandle, size uint32) error {
	fd, err := fs.getFD(h)
	if err != nil {
		return err
	}
	if !fd.write {
		return vfs.NewError(vfs.ErrReadOnly, fd.name)
	}
	if err := fd.file.Truncate(size); err != nil {
		return translateError(err, fd.name)
	}
	fd.touch()
	return nil
}

// Flush writes pending metadata and content to the device.
func (fs *FileSystem) Flush(h vfs.FileHandle) error {
	fd, err := fs.getFD(h)
	if err != nil {
		return err
	}
	if err := fs.flushMeta(fd); err != nil {
		return err
	}
	return translateError(fd.file.Sync(), fd.name)
}

// Stat describes the entry at path.
func (fs *FileSystem) Stat(path string) (*vfs.Stat, error) {
	if err := fs.checkMounted(); err != nil {
		return nil, err
	}
	if err := checkPath(path); err != nil {
		return nil, err
	}

	var attrs sysAttrs
	var info engine.Info
	if err := fs.eng.Stat(path, &info, attrs.list()); err != nil {
		return nil, translateError(err, path)
	}
	st := &vfs.Stat{}
	attrs.fillStat(st, &info)
	if isRootPath(path) {
		st.ACL = fs.rootACL
	}
	return st, nil
}

// FStat describes an open file from the descriptor cache, so pending
// metadata changes are visible before they reach the device.
func (fs *FileSystem) FStat(h vfs.FileHandle) (*vfs.Stat, error) {
	fd, err := fs.getFD(h)
	if err != nil {
		return nil, err
	}
	size, err := fd.file.Size()
	if err != nil {
		return nil, translateError(err, fd.name)
	}

	st := &vfs.Stat{
		Name:        fd.name,
		Size:        uint32(size),
		ID:          fd.file.ID(),
		MTime:       fd.mtime,
		ACL:         fd.acl,
		Attr:        fd.attr,
		Compression: fd.compression,
	}
	if st.Compression.Type != vfs.CompressionNone {
		st.Attr |= vfs.AttrCompressed
		st.Size = st.Compression.OriginalSize
	}
	return st, nil
}

// Remove deletes a file or an empty directory. Entries carrying the
// read-only flag are refused.
func (fs *FileSystem) Remove(path string) error {
	if err := fs.checkMounted(); err != nil {
		return err
	}
	if err := checkPath(path); err != nil {
		return err
	}
	if fs.pathReadOnly(path) {
		return vfs.NewError(vfs.ErrReadOnly, path)
	}
	return translateError(fs.eng.Remove(path), path)
}

// FRemove would delete the file behind an open handle. The engine has
// no way to unlink an open file, so only the read-only precondition is
// checked before reporting the operation unavailable.
func (fs *FileSystem) FRemove(h vfs.FileHandle) error {
	fd, err := fs.getFD(h)
	if err != nil {
		return err
	}
	if fd.attr.Has(vfs.AttrReadOnly) {
		return vfs.NewError(vfs.ErrReadOnly, fd.name)
	}
	return vfs.NewError(vfs.ErrNotImplemented, fd.name)
}

// Rename moves an entry to a new path. The mount root cannot be moved.
func (fs *FileSystem) Rename(oldPath, newPath string) error {
	if err := fs.checkMounted(); err != nil {
		return err
	}
	if err := checkPath(oldPath); err != nil {
		return err
	}
	if err := checkPath(newPath); err != nil {
		return err
	}
	if isRootPath(oldPath) {
		return vfs.NewError(vfs.ErrBadParam, oldPath)
	}
	return translateError(fs.eng.Rename(oldPath, newPath), oldPath)
}

// baseName returns the final path component.
func baseName(path string) string {
	trimmed := strings.Trim(path, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
