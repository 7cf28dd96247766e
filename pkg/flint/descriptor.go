package flint

import (
	"github.com/flintfs/flintfs/pkg/engine"
	"github.com/flintfs/flintfs/pkg/vfs"
)

const (
	// HandleMin is the first file handle value
	HandleMin vfs.FileHandle = 200

	// MaxFileDescriptors bounds the number of concurrently open files
	MaxFileDescriptors = 5

	// HandleMax is the last file handle value
	HandleMax = HandleMin + MaxFileDescriptors - 1
)

// Dirty bits for cached metadata, one per system attribute tag.
const (
	dirtyMTime uint8 = 1 << iota
	dirtyReadAce
	dirtyWriteAce
	dirtyCompression
	dirtyFileAttributes
)

// fileDescriptor is the adapter-side state of one open file. It caches
// the system attributes fetched when the file was opened; mutations go
// to the cache with a dirty bit and are written back on flush/close.
type fileDescriptor struct {
	// name is the final path component, kept because the engine does
	// not retain names of open files
	name string

	file *engine.File

	// cached metadata snapshot
	mtime       vfs.TimeStamp
	acl         vfs.ACL
	compression vfs.Compression
	attr        vfs.FileAttributes

	// dirty marks cached fields not yet written back
	dirty uint8

	// write records the open mode: the engine asserts rather than
	// reporting mode violations, so writes are pre-checked here
	write bool

	// isRoot marks a descriptor referring to the mount root, whose
	// ACL lives in the adapter's root cache
	isRoot bool
}

// touch updates the cached modification time.
func (fd *fileDescriptor) touch() {
	fd.mtime = vfs.TimeNow()
	fd.dirty |= dirtyMTime
}

// allocFD claims the first free descriptor slot.
func (fs *FileSystem) allocFD() (vfs.FileHandle, error) {
	for i := range fs.fds {
		if fs.fds[i] == nil {
			fs.fds[i] = &fileDescriptor{}
			return HandleMin + vfs.FileHandle(i), nil
		}
	}
	return 0, vfs.NewError(vfs.ErrOutOfFileDescriptors, "")
}

// getFD validates a handle and returns its descriptor. Out-of-range
// handles and empty slots fail with distinct kinds.
func (fs *FileSystem) getFD(h vfs.FileHandle) (*fileDescriptor, error) {
	if h < HandleMin || h > HandleMax {
		return nil, vfs.NewError(vfs.ErrInvalidHandle, "")
	}
	fd := fs.fds[h-HandleMin]
	if fd == nil {
		return nil, vfs.NewError(vfs.ErrFileNotOpen, "")
	}
	return fd, nil
}

// releaseFD frees a slot. The handle is dead afterwards regardless of
// how the engine-level close went.
func (fs *FileSystem) releaseFD(h vfs.FileHandle) {
	if h >= HandleMin && h <= HandleMax {
		fs.fds[h-HandleMin] = nil
	}
}
