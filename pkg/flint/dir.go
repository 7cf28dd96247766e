package flint

import (
	"github.com/flintfs/flintfs/pkg/engine"
	"github.com/flintfs/flintfs/pkg/vfs"
)

// directory is an open directory cursor. The engine cursor yields the
// "." and ".." pseudo-entries first, so the adapter parks it past them
// on open and rewind; callers only ever see real entries.
type directory struct {
	fs   *FileSystem
	dir  *engine.Dir
	path string
}

var _ vfs.Directory = (*directory)(nil)

// entrySkip is the number of pseudo-entries at the head of an engine
// directory cursor.
const entrySkip = 2

// OpenDir opens a directory for enumeration.
func (fs *FileSystem) OpenDir(path string) (vfs.Directory, error) {
	if err := fs.checkMounted(); err != nil {
		return nil, err
	}
	if err := checkPath(path); err != nil {
		return nil, err
	}
	dir, err := fs.eng.OpenDir(path)
	if err != nil {
		return nil, translateError(err, path)
	}
	if err := dir.Seek(entrySkip); err != nil {
		dir.Close()
		return nil, translateError(err, path)
	}
	return &directory{fs: fs, dir: dir, path: path}, nil
}

// Read fills st with the next entry, or fails with ErrNoMoreFiles when
// the enumeration is exhausted.
func (d *directory) Read(st *vfs.Stat) error {
	var attrs sysAttrs
	var info engine.Info
	ok, err := d.dir.Read(&info, attrs.list())
	if err != nil {
		return translateError(err, d.path)
	}
	if !ok {
		return vfs.NewError(vfs.ErrNoMoreFiles, d.path)
	}
	attrs.fillStat(st, &info)
	return nil
}

// Rewind restarts the enumeration from the first entry.
func (d *directory) Rewind() error {
	return translateError(d.dir.Seek(entrySkip), d.path)
}

// Close releases the cursor.
func (d *directory) Close() error {
	return translateError(d.dir.Close(), d.path)
}

// Mkdir creates a directory and stamps its modification time. Creating
// a directory that already exists succeeds.
func (fs *FileSystem) Mkdir(path string) error {
	if err := fs.checkMounted(); err != nil {
		return err
	}
	if err := checkPath(path); err != nil {
		return err
	}

	if err := fs.eng.Mkdir(path); err != nil {
		if err == engine.ErrExist {
			return nil
		}
		return translateError(err, path)
	}
	return translateError(
		fs.eng.SetAttr(path, uint8(vfs.TagModifiedTime), vfs.EncodeTime(vfs.TimeNow())),
		path,
	)
}
