// Package partition defines the abstract block-addressed storage region
// a filesystem mounts on, plus several interchangeable backends
// (memory, image file, BadgerDB, S3).
//
// A partition is a flat byte range with flash semantics: bytes must be
// erased before they are programmed, and erased bytes read back as
// ErasedByte (0xFF). Backends are borrowed by the filesystem for the
// lifetime of a mount; the caller retains ownership.
package partition

// ErasedByte is the value erased storage reads back as.
const ErasedByte = 0xFF

// SubType declares what a partition is expected to contain. The
// filesystem verifies the subtype before mounting so a volume is never
// interpreted under the wrong on-disk format.
type SubType uint8

const (
	// SubTypeUnknown is an unclassified partition
	SubTypeUnknown SubType = iota

	// SubTypeFlintFS holds a flintfs volume
	SubTypeFlintFS
)

func (s SubType) String() string {
	switch s {
	case SubTypeFlintFS:
		return "flintfs"
	default:
		return "unknown"
	}
}

// Partition is a block-addressed storage region with synchronous,
// blocking primitives. Implementations are not required to be safe for
// concurrent use; the single-threaded filesystem above never issues
// overlapping calls.
type Partition interface {
	// Size returns the partition capacity in bytes
	Size() uint32

	// SubType reports the declared content type
	SubType() SubType

	// Read fills buf from the given byte address
	Read(addr uint32, buf []byte) error

	// Write programs buf at the given byte address. The range must
	// have been erased since it was last programmed.
	Write(addr uint32, buf []byte) error

	// EraseRange resets [addr, addr+size) to ErasedByte
	EraseRange(addr uint32, size uint32) error

	// Sync flushes buffered writes to durable storage
	Sync() error
}
