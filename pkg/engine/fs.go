package engine

import "hash/crc32"

// Mount reads the superblocks, picks the newest valid revision and
// loads its snapshot. The engine must not already be mounted.
func (e *Engine) Mount() error {
	if e.mounted {
		return ErrInval
	}

	var best *superblock
	var bestBlock uint32
	header := make([]byte, superHeaderSize)
	for block := uint32(0); block < 2; block++ {
		if err := e.cfg.Read(block, 0, header); err != nil {
			return err
		}
		sb, eerr := decodeSuper(header)
		if eerr != 0 {
			continue
		}
		if sb.BlockSize != e.cfg.BlockSize || sb.BlockCount > e.cfg.BlockCount {
			continue
		}
		if best == nil || sb.Revision > best.Revision {
			best = sb
			bestBlock = block
		}
	}
	if best == nil {
		return ErrCorrupt
	}

	data := make([]byte, best.SnapLen)
	if best.SnapStart == 0 {
		if best.SnapLen > e.cfg.BlockSize-superHeaderSize {
			return ErrCorrupt
		}
		if err := e.cfg.Read(bestBlock, superHeaderSize, data); err != nil {
			return err
		}
	} else {
		if uint64(best.SnapStart)+uint64(best.SnapBlocks) > uint64(e.cfg.BlockCount) {
			return ErrCorrupt
		}
		bs := e.cfg.BlockSize
		for i := uint32(0); i < best.SnapBlocks; i++ {
			start := i * bs
			end := start + bs
			if end > best.SnapLen {
				end = best.SnapLen
			}
			if err := e.cfg.Read(best.SnapStart+i, 0, data[start:end]); err != nil {
				return err
			}
		}
	}
	if crc32.ChecksumIEEE(data) != best.SnapCRC {
		return ErrCorrupt
	}

	root, eerr := e.decodeTree(data)
	if eerr != 0 {
		return eerr
	}

	e.root = root
	e.rev = best.Revision
	e.snapStart = best.SnapStart
	e.snapBlocks = best.SnapBlocks
	e.mounted = true
	e.dirty = false
	return nil
}

// Unmount releases the in-memory state without flushing. Open files
// must be closed (or synced) first or their changes are lost.
func (e *Engine) Unmount() error {
	e.mounted = false
	e.root = nil
	return nil
}

// Format erases both superblocks and writes an empty volume. The
// engine is left unmounted.
func (e *Engine) Format() error {
	e.mounted = false

	// Both superblocks must go: a stale higher revision would win the
	// next mount over the freshly formatted tree.
	if err := e.cfg.Erase(0); err != nil {
		return err
	}
	if err := e.cfg.Erase(1); err != nil {
		return err
	}

	e.root = e.newNode("", true)
	e.rev = 0
	e.snapStart = 0
	e.snapBlocks = 0
	err := e.commit()
	e.root = nil
	return err
}

// commit persists the tree: snapshot first, then the superblock that
// names it, alternating superblock slots by revision parity.
func (e *Engine) commit() error {
	data, eerr := e.encodeTree()
	if eerr != 0 {
		return eerr
	}
	bs := e.cfg.BlockSize

	newRev := e.rev + 1
	sb := superblock{
		Magic:      superMagic,
		Version:    superVersion,
		Revision:   newRev,
		BlockSize:  bs,
		BlockCount: e.cfg.BlockCount,
		SnapLen:    uint32(len(data)),
		SnapCRC:    crc32.ChecksumIEEE(data),
	}

	var snapStart, snapBlocks uint32
	if uint32(len(data)) > bs-superHeaderSize {
		need := (uint32(len(data)) + bs - 1) / bs
		if need > e.cfg.BlockCount-2 {
			return ErrNoSpc
		}

		// Rotate the region past the previous snapshot so successive
		// commits walk the device instead of hammering one spot.
		start := e.snapStart + e.snapBlocks
		if start < 2 {
			start = 2
		}
		if start+need > e.cfg.BlockCount {
			start = 2
		}

		for i := uint32(0); i < need; i++ {
			if err := e.cfg.Erase(start + i); err != nil {
				return err
			}
			lo := i * bs
			hi := lo + bs
			if hi > uint32(len(data)) {
				hi = uint32(len(data))
			}
			if err := e.cfg.Prog(start+i, 0, padToProg(data[lo:hi], e.cfg.ProgSize)); err != nil {
				return err
			}
		}
		snapStart, snapBlocks = start, need
		sb.SnapStart = start
		sb.SnapBlocks = need
	}

	header, eerr := encodeSuper(&sb)
	if eerr != 0 {
		return eerr
	}
	image := make([]byte, bs)
	for i := range image {
		image[i] = 0xFF
	}
	copy(image, header)
	if sb.SnapStart == 0 {
		copy(image[superHeaderSize:], data)
	}

	sbBlock := uint32(newRev % 2)
	if err := e.cfg.Erase(sbBlock); err != nil {
		return err
	}
	if err := e.cfg.Prog(sbBlock, 0, image); err != nil {
		return err
	}
	if err := e.cfg.Sync(); err != nil {
		return err
	}

	e.rev = newRev
	e.snapStart = snapStart
	e.snapBlocks = snapBlocks
	e.dirty = false
	return nil
}

// padToProg pads data with erased bytes up to the program granularity.
func padToProg(data []byte, progSize uint32) []byte {
	rem := uint32(len(data)) % progSize
	if rem == 0 {
		return data
	}
	padded := make([]byte, uint32(len(data))+progSize-rem)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = 0xFF
	}
	return padded
}
