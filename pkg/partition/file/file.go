// Package file provides a partition backend stored in a host image
// file. The CLI uses it to build and inspect volume images that can
// later be flashed or served from other backends.
package file

import (
	"fmt"
	"os"

	"github.com/flintfs/flintfs/pkg/partition"
)

// FilePartition is a partition backed by a fixed-size image file.
type FilePartition struct {
	f       *os.File
	size    uint32
	subType partition.SubType
}

var _ partition.Partition = (*FilePartition)(nil)

// Open opens an existing image file as a partition. The file's current
// length defines the partition size.
func Open(path string, subType partition.SubType) (*FilePartition, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("file partition: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("file partition: stat %s: %w", path, err)
	}
	return &FilePartition{f: f, size: uint32(st.Size()), subType: subType}, nil
}

// Create creates (or truncates) an image file of the given size, fully
// erased, and opens it as a partition.
func Create(path string, size uint32, subType partition.SubType) (*FilePartition, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("file partition: create %s: %w", path, err)
	}
	p := &FilePartition{f: f, size: size, subType: subType}
	if err := p.EraseRange(0, size); err != nil {
		f.Close()
		return nil, err
	}
	return p, nil
}

// Close releases the underlying image file. The partition must not be
// used afterwards.
func (p *FilePartition) Close() error {
	return p.f.Close()
}

func (p *FilePartition) Size() uint32 {
	return p.size
}

func (p *FilePartition) SubType() partition.SubType {
	return p.subType
}

func (p *FilePartition) Read(addr uint32, buf []byte) error {
	if err := p.checkRange(addr, uint32(len(buf))); err != nil {
		return err
	}
	if _, err := p.f.ReadAt(buf, int64(addr)); err != nil {
		return fmt.Errorf("file partition: read at %d: %w", addr, err)
	}
	return nil
}

func (p *FilePartition) Write(addr uint32, buf []byte) error {
	if err := p.checkRange(addr, uint32(len(buf))); err != nil {
		return err
	}
	if _, err := p.f.WriteAt(buf, int64(addr)); err != nil {
		return fmt.Errorf("file partition: write at %d: %w", addr, err)
	}
	return nil
}

func (p *FilePartition) EraseRange(addr uint32, size uint32) error {
	if err := p.checkRange(addr, size); err != nil {
		return err
	}
	// Erase in bounded chunks so huge ranges don't allocate huge buffers.
	const chunk = 64 * 1024
	blank := make([]byte, min(int(size), chunk))
	for i := range blank {
		blank[i] = partition.ErasedByte
	}
	for off := uint32(0); off < size; {
		n := uint32(len(blank))
		if size-off < n {
			n = size - off
		}
		if _, err := p.f.WriteAt(blank[:n], int64(addr+off)); err != nil {
			return fmt.Errorf("file partition: erase at %d: %w", addr+off, err)
		}
		off += n
	}
	return nil
}

func (p *FilePartition) Sync() error {
	if err := p.f.Sync(); err != nil {
		return fmt.Errorf("file partition: sync: %w", err)
	}
	return nil
}

func (p *FilePartition) checkRange(addr, size uint32) error {
	if uint64(addr)+uint64(size) > uint64(p.size) {
		return fmt.Errorf("file partition: range [%d, %d) outside size %d", addr, addr+size, p.size)
	}
	return nil
}
