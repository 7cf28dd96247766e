// Package badger provides a persistent partition backend on BadgerDB.
//
// The byte range is split into fixed 4 KiB chunks stored as individual
// key-value entries. A missing chunk reads back fully erased, so a
// fresh database is an erased partition and erasing a chunk is a
// delete rather than a rewrite. This keeps the database proportional
// to the programmed (not declared) size of the partition.
//
// Key schema:
//
//	m:size        partition size (4 bytes, big-endian)
//	c:<index>     chunk payload (index is 4 bytes, big-endian)
package badger

import (
	"encoding/binary"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/flintfs/flintfs/pkg/partition"
)

const chunkSize = 4096

var (
	keySize        = []byte("m:size")
	chunkKeyPrefix = []byte("c:")
)

// BadgerPartition is a partition persisted in a BadgerDB database.
type BadgerPartition struct {
	db      *badger.DB
	size    uint32
	subType partition.SubType
}

var _ partition.Partition = (*BadgerPartition)(nil)

// Config configures a BadgerPartition.
type Config struct {
	// DBPath is the BadgerDB directory
	DBPath string

	// Size is the partition capacity in bytes. Reopening an existing
	// database with a different size fails.
	Size uint32

	// SubType is the declared partition content type
	SubType partition.SubType

	// InMemory runs BadgerDB without files (tests)
	InMemory bool
}

// New opens (creating if necessary) a Badger-backed partition.
func New(cfg Config) (*BadgerPartition, error) {
	if cfg.Size == 0 {
		return nil, fmt.Errorf("badger partition: size is required")
	}

	opts := badger.DefaultOptions(cfg.DBPath).WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger partition: open %s: %w", cfg.DBPath, err)
	}

	p := &BadgerPartition{db: db, size: cfg.Size, subType: cfg.SubType}
	if err := p.checkSize(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// checkSize persists the declared size on first open and verifies it on
// reopen, so an image is never reinterpreted with a different geometry.
func (p *BadgerPartition) checkSize() error {
	return p.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keySize)
		if err == badger.ErrKeyNotFound {
			buf := make([]byte, 4)
			binary.BigEndian.PutUint32(buf, p.size)
			return txn.Set(keySize, buf)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if stored := binary.BigEndian.Uint32(val); stored != p.size {
				return fmt.Errorf("badger partition: stored size %d does not match requested %d", stored, p.size)
			}
			return nil
		})
	})
}

// Close releases the database.
func (p *BadgerPartition) Close() error {
	return p.db.Close()
}

func (p *BadgerPartition) Size() uint32 {
	return p.size
}

func (p *BadgerPartition) SubType() partition.SubType {
	return p.subType
}

func chunkKey(index uint32) []byte {
	key := make([]byte, len(chunkKeyPrefix)+4)
	copy(key, chunkKeyPrefix)
	binary.BigEndian.PutUint32(key[len(chunkKeyPrefix):], index)
	return key
}

// loadChunk reads one chunk into dst (len chunkSize). Missing chunks
// come back erased.
func loadChunk(txn *badger.Txn, index uint32, dst []byte) error {
	for i := range dst {
		dst[i] = partition.ErasedByte
	}
	item, err := txn.Get(chunkKey(index))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		copy(dst, val)
		return nil
	})
}

func (p *BadgerPartition) Read(addr uint32, buf []byte) error {
	if err := p.checkRange(addr, uint32(len(buf))); err != nil {
		return err
	}
	chunk := make([]byte, chunkSize)
	return p.db.View(func(txn *badger.Txn) error {
		for done := uint32(0); done < uint32(len(buf)); {
			index := (addr + done) / chunkSize
			off := (addr + done) % chunkSize
			n := chunkSize - off
			if rest := uint32(len(buf)) - done; rest < n {
				n = rest
			}
			if err := loadChunk(txn, index, chunk); err != nil {
				return fmt.Errorf("badger partition: read chunk %d: %w", index, err)
			}
			copy(buf[done:done+n], chunk[off:])
			done += n
		}
		return nil
	})
}

func (p *BadgerPartition) Write(addr uint32, buf []byte) error {
	if err := p.checkRange(addr, uint32(len(buf))); err != nil {
		return err
	}
	chunk := make([]byte, chunkSize)
	return p.db.Update(func(txn *badger.Txn) error {
		for done := uint32(0); done < uint32(len(buf)); {
			index := (addr + done) / chunkSize
			off := (addr + done) % chunkSize
			n := chunkSize - off
			if rest := uint32(len(buf)) - done; rest < n {
				n = rest
			}
			if err := loadChunk(txn, index, chunk); err != nil {
				return fmt.Errorf("badger partition: load chunk %d: %w", index, err)
			}
			copy(chunk[off:], buf[done:done+n])
			stored := make([]byte, chunkSize)
			copy(stored, chunk)
			if err := txn.Set(chunkKey(index), stored); err != nil {
				return fmt.Errorf("badger partition: write chunk %d: %w", index, err)
			}
			done += n
		}
		return nil
	})
}

func (p *BadgerPartition) EraseRange(addr uint32, size uint32) error {
	if err := p.checkRange(addr, size); err != nil {
		return err
	}
	chunk := make([]byte, chunkSize)
	return p.db.Update(func(txn *badger.Txn) error {
		for done := uint32(0); done < size; {
			index := (addr + done) / chunkSize
			off := (addr + done) % chunkSize
			n := chunkSize - off
			if rest := size - done; rest < n {
				n = rest
			}
			if off == 0 && n == chunkSize {
				// Whole chunk: erased state is simply absence.
				if err := txn.Delete(chunkKey(index)); err != nil {
					return fmt.Errorf("badger partition: erase chunk %d: %w", index, err)
				}
			} else {
				if err := loadChunk(txn, index, chunk); err != nil {
					return fmt.Errorf("badger partition: load chunk %d: %w", index, err)
				}
				for i := off; i < off+n; i++ {
					chunk[i] = partition.ErasedByte
				}
				stored := make([]byte, chunkSize)
				copy(stored, chunk)
				if err := txn.Set(chunkKey(index), stored); err != nil {
					return fmt.Errorf("badger partition: erase chunk %d: %w", index, err)
				}
			}
			done += n
		}
		return nil
	})
}

func (p *BadgerPartition) Sync() error {
	if p.db.Opts().InMemory {
		return nil
	}
	if err := p.db.Sync(); err != nil {
		return fmt.Errorf("badger partition: sync: %w", err)
	}
	return nil
}

func (p *BadgerPartition) checkRange(addr, size uint32) error {
	if uint64(addr)+uint64(size) > uint64(p.size) {
		return fmt.Errorf("badger partition: range [%d, %d) outside size %d", addr, addr+size, p.size)
	}
	return nil
}
