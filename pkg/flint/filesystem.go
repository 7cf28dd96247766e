// Package flint adapts the block-structured storage engine to the
// unified filesystem interface in pkg/vfs.
//
// The adapter owns everything the engine does not: the partition
// binding, the fixed file descriptor table, translation between the
// unified flag/error/attribute vocabulary and the engine's native one,
// cached system attributes on open handles, and the mount-time repair
// policy (one format-and-retry when the volume fails to mount).
package flint

import (
	"strings"

	"github.com/flintfs/flintfs/internal/logger"
	"github.com/flintfs/flintfs/pkg/engine"
	"github.com/flintfs/flintfs/pkg/partition"
	"github.com/flintfs/flintfs/pkg/vfs"
)

// Fixed storage engine geometry. The adapter always mounts with these;
// partitions are sized in whole blocks.
const (
	ReadSize      uint32 = 16
	ProgSize      uint32 = 16
	BlockSize     uint32 = 4096
	BlockCycles   uint32 = 500
	CacheSize     uint32 = 32
	LookaheadSize uint32 = 16
)

// FileSystemType identifies this filesystem implementation.
const FileSystemType = "flintfs"

// MaxPathLength is the longest path the adapter accepts.
const MaxPathLength = 65535

// FileSystem exposes a partition-backed storage engine volume through
// the vfs.FileSystem interface. It is not safe for concurrent use;
// callers serialize access the same way they would around a device.
type FileSystem struct {
	part     partition.Partition
	profiler vfs.Profiler

	eng        *engine.Engine
	blockCount uint32

	fds [MaxFileDescriptors]*fileDescriptor

	// rootACL caches the mount root's access control entries: the root
	// has no parent directory entry, so its ACL is kept here and
	// persisted through the engine's root attributes.
	rootACL vfs.ACL

	mounted bool
}

var _ vfs.FileSystem = (*FileSystem)(nil)

// New creates a filesystem over the given partition. The volume is not
// touched until Mount.
func New(part partition.Partition) *FileSystem {
	return &FileSystem{part: part}
}

// initEngine validates the partition binding and builds the engine
// over it. Safe to call repeatedly; an existing engine is kept.
func (fs *FileSystem) initEngine() error {
	if fs.part == nil {
		return vfs.NewError(vfs.ErrNoPartition, "")
	}
	if fs.eng != nil {
		return nil
	}
	if fs.part.SubType() != partition.SubTypeFlintFS {
		return vfs.NewError(vfs.ErrBadPartition, "")
	}
	blockCount := fs.part.Size() / BlockSize
	if blockCount < 2 {
		return vfs.NewError(vfs.ErrBadPartition, "")
	}

	eng, err := engine.New(&engine.Config{
		Read:          fs.blockRead,
		Prog:          fs.blockProg,
		Erase:         fs.blockErase,
		Sync:          fs.blockSync,
		ReadSize:      ReadSize,
		ProgSize:      ProgSize,
		BlockSize:     BlockSize,
		BlockCount:    blockCount,
		BlockCycles:   BlockCycles,
		CacheSize:     CacheSize,
		LookaheadSize: LookaheadSize,
	})
	if err != nil {
		return translateError(err, "")
	}
	fs.blockCount = blockCount
	fs.eng = eng
	return nil
}

// Mount attaches the volume. A volume that fails to mount is formatted
// and mounted once more; if that also fails the error is returned.
// Mounting an already-mounted filesystem is a no-op.
func (fs *FileSystem) Mount() error {
	if fs.mounted {
		return nil
	}
	if err := fs.initEngine(); err != nil {
		return err
	}

	if err := fs.eng.Mount(); err != nil {
		logger.Warn("mount failed (%v), formatting volume", err)
		if err := fs.eng.Format(); err != nil {
			fs.eng = nil
			return translateError(err, "")
		}
		if err := fs.eng.Mount(); err != nil {
			fs.eng = nil
			return translateError(err, "")
		}
	}

	fs.loadRootACL()
	fs.mounted = true
	logger.Debug("mounted volume: %d blocks of %d bytes", fs.blockCount, BlockSize)
	return nil
}

// Format erases the volume and rebuilds an empty filesystem. Open
// handles are invalidated. The filesystem is left mounted.
func (fs *FileSystem) Format() error {
	if err := fs.initEngine(); err != nil {
		return err
	}

	if fs.mounted {
		fs.closeAll()
		fs.mounted = false
		if err := fs.eng.Unmount(); err != nil {
			return translateError(err, "")
		}
	}

	if err := fs.eng.Format(); err != nil {
		return translateError(err, "")
	}
	if err := fs.eng.Mount(); err != nil {
		return translateError(err, "")
	}
	fs.rootACL = vfs.ACL{}
	fs.mounted = true
	return nil
}

// Check verifies on-disk consistency. The engine validates its
// snapshot on every mount, so there is no separate checker to run.
func (fs *FileSystem) Check() error {
	return vfs.NewError(vfs.ErrNotImplemented, "")
}

// GetInfo describes the filesystem and volume.
func (fs *FileSystem) GetInfo() (*vfs.Info, error) {
	info := &vfs.Info{
		Type:          FileSystemType,
		Mounted:       fs.mounted,
		MaxNameLength: engine.NameMax,
		MaxPathLength: MaxPathLength,
	}
	if !fs.mounted {
		return info, nil
	}

	used, err := fs.eng.UsedBlocks()
	if err != nil {
		return nil, translateError(err, "")
	}
	info.VolumeSize = uint64(fs.blockCount) * uint64(BlockSize)
	info.FreeSpace = uint64(fs.blockCount-used) * uint64(BlockSize)
	return info, nil
}

// SetProfiler attaches (or with nil detaches) a block I/O profiler.
func (fs *FileSystem) SetProfiler(p vfs.Profiler) {
	fs.profiler = p
}

// loadRootACL populates the root ACL cache from the root entry's
// persisted attributes; absent attributes leave the open defaults.
func (fs *FileSystem) loadRootACL() {
	fs.rootACL = vfs.ACL{}
	buf := make([]byte, 1)
	if _, err := fs.eng.GetAttr("", uint8(vfs.TagReadAce), buf); err == nil {
		fs.rootACL.ReadAccess = vfs.DecodeRole(buf)
	}
	if _, err := fs.eng.GetAttr("", uint8(vfs.TagWriteAce), buf); err == nil {
		fs.rootACL.WriteAccess = vfs.DecodeRole(buf)
	}
}

// closeAll drops every open descriptor without flushing; used when the
// volume underneath them is about to be rebuilt.
func (fs *FileSystem) closeAll() {
	for i := range fs.fds {
		if fs.fds[i] != nil {
			fs.fds[i].file = nil
			fs.fds[i] = nil
		}
	}
}

// checkMounted gates operations that need a mounted volume.
func (fs *FileSystem) checkMounted() error {
	if !fs.mounted {
		return vfs.NewError(vfs.ErrNotMounted, "")
	}
	return nil
}

// checkPath validates a path string. Paths are '/'-separated; NUL and
// backslash bytes are rejected rather than silently passed to the
// engine.
func checkPath(path string) error {
	if len(path) > MaxPathLength {
		return vfs.NewError(vfs.ErrNameTooLong, "")
	}
	if strings.ContainsAny(path, "\x00\\") {
		return vfs.NewError(vfs.ErrBadParam, path)
	}
	return nil
}

// isRootPath reports whether path names the mount root.
func isRootPath(path string) bool {
	return strings.Trim(path, "/") == ""
}
