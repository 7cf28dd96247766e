package badger

import (
	"bytes"
	"testing"

	"github.com/flintfs/flintfs/pkg/partition"
)

// newTestPartition opens an in-memory Badger partition.
func newTestPartition(t *testing.T, size uint32) *BadgerPartition {
	t.Helper()
	p, err := New(Config{
		Size:     size,
		SubType:  partition.SubTypeFlintFS,
		InMemory: true,
	})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

// TestBadgerPartitionContract exercises erased reads, writes and
// erases across chunk boundaries.
func TestBadgerPartitionContract(t *testing.T) {
	p := newTestPartition(t, 64*1024)

	if p.Size() != 64*1024 {
		t.Fatalf("Size() = %d, want %d", p.Size(), 64*1024)
	}

	// Unwritten chunks read erased.
	buf := make([]byte, 64)
	if err := p.Read(32*1024, buf); err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	for _, b := range buf {
		if b != partition.ErasedByte {
			t.Fatalf("unwritten chunk reads %#x, want %#x", b, partition.ErasedByte)
		}
	}

	// A write straddling two chunks reads back whole.
	payload := bytes.Repeat([]byte{0x5A}, 512)
	addr := uint32(4096 - 256)
	if err := p.Write(addr, payload); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	got := make([]byte, len(payload))
	if err := p.Read(addr, got); err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("straddling write did not read back")
	}

	// Erasing the range restores the erased pattern.
	if err := p.EraseRange(0, 8192); err != nil {
		t.Fatalf("EraseRange() failed: %v", err)
	}
	if err := p.Read(addr, got); err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	for _, b := range got {
		if b != partition.ErasedByte {
			t.Fatalf("erased range reads %#x", b)
		}
	}

	if err := p.Sync(); err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}
}

// TestBadgerPartitionBounds verifies range validation.
func TestBadgerPartitionBounds(t *testing.T) {
	p := newTestPartition(t, 8192)

	if err := p.Read(8190, make([]byte, 8)); err == nil {
		t.Fatal("Read() past end should fail")
	}
	if err := p.Write(8192, []byte{1}); err == nil {
		t.Fatal("Write() past end should fail")
	}
}

// TestBadgerPartitionSizeRequired verifies configuration validation.
func TestBadgerPartitionSizeRequired(t *testing.T) {
	if _, err := New(Config{InMemory: true, SubType: partition.SubTypeFlintFS}); err == nil {
		t.Fatal("New() without size should fail")
	}
}
