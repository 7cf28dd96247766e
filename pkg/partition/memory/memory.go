// Package memory provides an in-RAM partition backend. It is the
// backend of choice for tests and for ephemeral volumes built at
// runtime and thrown away.
package memory

import (
	"fmt"

	"github.com/flintfs/flintfs/pkg/partition"
)

// MemoryPartition is a partition backed by a byte slice.
type MemoryPartition struct {
	data    []byte
	subType partition.SubType
}

var _ partition.Partition = (*MemoryPartition)(nil)

// New creates a memory partition of the given size, fully erased.
func New(size uint32, subType partition.SubType) *MemoryPartition {
	data := make([]byte, size)
	for i := range data {
		data[i] = partition.ErasedByte
	}
	return &MemoryPartition{data: data, subType: subType}
}

func (p *MemoryPartition) Size() uint32 {
	return uint32(len(p.data))
}

func (p *MemoryPartition) SubType() partition.SubType {
	return p.subType
}

func (p *MemoryPartition) Read(addr uint32, buf []byte) error {
	if err := p.checkRange(addr, uint32(len(buf))); err != nil {
		return err
	}
	copy(buf, p.data[addr:])
	return nil
}

func (p *MemoryPartition) Write(addr uint32, buf []byte) error {
	if err := p.checkRange(addr, uint32(len(buf))); err != nil {
		return err
	}
	copy(p.data[addr:], buf)
	return nil
}

func (p *MemoryPartition) EraseRange(addr uint32, size uint32) error {
	if err := p.checkRange(addr, size); err != nil {
		return err
	}
	for i := addr; i < addr+size; i++ {
		p.data[i] = partition.ErasedByte
	}
	return nil
}

func (p *MemoryPartition) Sync() error {
	return nil
}

func (p *MemoryPartition) checkRange(addr, size uint32) error {
	if uint64(addr)+uint64(size) > uint64(len(p.data)) {
		return fmt.Errorf("memory partition: range [%d, %d) outside size %d", addr, addr+size, len(p.data))
	}
	return nil
}
