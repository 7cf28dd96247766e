// Package engine implements the block-structured storage engine behind
// the filesystem adapter.
//
// The engine owns the on-disk layout and speaks to storage exclusively
// through the four block callbacks in Config; it never sees the device
// itself. All state lives in a directory tree kept in memory while
// mounted and persisted as a checksummed snapshot: twin revisioned
// superblocks in blocks 0 and 1 carry the current snapshot location,
// small snapshots are embedded directly in the superblock, and larger
// ones are written to a region that rotates across the remaining
// blocks so repeated commits spread program/erase load over the
// device.
//
// Every entry point returns Error codes; callers are expected to
// translate them at the boundary.
package engine

// Size limits enforced by the engine.
const (
	// NameMax is the longest entry name
	NameMax = 255

	// FileMax is the largest file content size
	FileMax = 0x7FFFFFFF

	// AttrMax is the largest attribute value
	AttrMax = 1022
)

// Config carries the geometry and block callbacks the engine operates
// over. It is populated by the adapter at mount time and must not
// change while mounted.
type Config struct {
	// Read fills buf from the given offset within a block
	Read func(block, off uint32, buf []byte) error

	// Prog programs buf at the given offset within an erased block
	Prog func(block, off uint32, buf []byte) error

	// Erase resets a whole block to the erased state
	Erase func(block uint32) error

	// Sync flushes the device's write pipeline
	Sync func() error

	// ReadSize is the read granularity in bytes
	ReadSize uint32

	// ProgSize is the program granularity in bytes
	ProgSize uint32

	// BlockSize is the erase block size in bytes
	BlockSize uint32

	// BlockCount is the number of erase blocks on the partition
	BlockCount uint32

	// BlockCycles is the program/erase budget per block before the
	// engine relocates data (informational for this engine; commits
	// rotate unconditionally)
	BlockCycles uint32

	// CacheSize is the read/program cache size in bytes
	CacheSize uint32

	// LookaheadSize is the block allocator lookahead in bytes
	LookaheadSize uint32
}

// Engine is one mounted (or mountable) volume.
type Engine struct {
	cfg *Config

	root    *node
	nextID  uint32
	mounted bool
	dirty   bool

	// persisted snapshot location
	rev        uint64
	snapStart  uint32 // 0 when the snapshot is inline in the superblock
	snapBlocks uint32
}

// New creates an engine over the given configuration.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil || cfg.Read == nil || cfg.Prog == nil || cfg.Erase == nil || cfg.Sync == nil {
		return nil, ErrInval
	}
	if cfg.BlockSize == 0 || cfg.BlockCount < 2 {
		return nil, ErrInval
	}
	if cfg.BlockSize%cfg.ProgSize != 0 || cfg.BlockSize%cfg.ReadSize != 0 {
		return nil, ErrInval
	}
	return &Engine{cfg: cfg}, nil
}

// Mounted reports whether the volume is currently mounted.
func (e *Engine) Mounted() bool {
	return e.mounted
}

// UsedBlocks returns the number of blocks holding file data. The two
// superblocks are metadata overhead and are not counted, so a freshly
// formatted volume reports zero.
func (e *Engine) UsedBlocks() (uint32, error) {
	if !e.mounted {
		return 0, ErrInval
	}
	return e.snapBlocks, nil
}
