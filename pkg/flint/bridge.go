package flint

import "github.com/flintfs/flintfs/pkg/engine"

// Block I/O bridge: the four callbacks the storage engine drives.
//
// Each translates a block-relative access into a linear partition
// address and forwards it, reporting to the attached profiler when one
// is present. Device failures surface as the synthetic I/O sub-codes
// so they stay distinguishable from engine-detected corruption. The
// bridge never retries; repair policy belongs to the engine above it.
//
// The methods are bound into engine.Config as method values, so the
// adapter instance itself is the bridge context.

func (fs *FileSystem) blockRead(block, off uint32, buf []byte) error {
	addr := block*BlockSize + off
	if err := fs.part.Read(addr, buf); err != nil {
		return engine.ErrIORead
	}
	if fs.profiler != nil {
		fs.profiler.Read(addr, buf)
	}
	return nil
}

func (fs *FileSystem) blockProg(block, off uint32, buf []byte) error {
	addr := block*BlockSize + off
	// Report before the write: the device write is what validates the
	// data, so a failed program still counts as attempted wear.
	if fs.profiler != nil {
		fs.profiler.Write(addr, buf)
	}
	if err := fs.part.Write(addr, buf); err != nil {
		return engine.ErrIOWrite
	}
	return nil
}

func (fs *FileSystem) blockErase(block uint32) error {
	addr := block * BlockSize
	if fs.profiler != nil {
		fs.profiler.Erase(addr, BlockSize)
	}
	if err := fs.part.EraseRange(addr, BlockSize); err != nil {
		return engine.ErrIOErase
	}
	return nil
}

func (fs *FileSystem) blockSync() error {
	if err := fs.part.Sync(); err != nil {
		return engine.ErrIOWrite
	}
	return nil
}
