package engine

import (
	"bytes"
	"hash/crc32"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// On-disk encoding. The superblock header and the tree snapshot are
// XDR-encoded; both carry a CRC32 so mount can reject torn or stale
// writes and fall back to the other superblock.

const (
	superMagic   = 0x464C4E54 // "FLNT"
	superVersion = 1

	// superHeaderSize reserves the start of a superblock block for the
	// XDR header plus its CRC; an inline snapshot begins right after.
	superHeaderSize = 256
)

// superblock is the XDR wire form of a superblock header.
type superblock struct {
	Magic      uint32
	Version    uint32
	Revision   uint64
	BlockSize  uint32
	BlockCount uint32

	// SnapStart is the first block of the external snapshot region,
	// or 0 when the snapshot is inline in this block
	SnapStart  uint32
	SnapBlocks uint32
	SnapLen    uint32
	SnapCRC    uint32
}

// snapEntry is the XDR wire form of one tree node. Nodes are stored
// flat in preorder; Parent indexes the owning directory within the
// same snapshot, with -1 for the root.
type snapEntry struct {
	Name    string
	Dir     bool
	Parent  int32
	Content []byte
	Attrs   []snapAttr
}

// snapAttr is one extended attribute. Tags are a single byte on the
// API surface but XDR has no 8-bit integer, so they widen to uint32
// on disk.
type snapAttr struct {
	Tag   uint32
	Value []byte
}

type snapshot struct {
	Entries []snapEntry
}

// encodeTree serializes the mounted tree.
func (e *Engine) encodeTree() ([]byte, Error) {
	var snap snapshot

	// Preorder walk, recording each directory's snapshot index so its
	// children can point back at it.
	var walk func(n *node, parent int32) Error
	walk = func(n *node, parent int32) Error {
		entry := snapEntry{
			Name:    n.name,
			Dir:     n.dir,
			Parent:  parent,
			Content: n.content,
		}
		for _, tag := range sortedAttrTags(n.attrs) {
			entry.Attrs = append(entry.Attrs, snapAttr{Tag: uint32(tag), Value: n.attrs[tag]})
		}
		snap.Entries = append(snap.Entries, entry)
		self := int32(len(snap.Entries) - 1)

		if n.dir {
			for _, name := range sortedChildNames(n) {
				if err := walk(n.children[name], self); err != 0 {
					return err
				}
			}
		}
		return 0
	}
	if err := walk(e.root, -1); err != 0 {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, &snap); err != nil {
		return nil, ErrNoMem
	}
	return buf.Bytes(), 0
}

// decodeTree rebuilds the tree from snapshot bytes.
func (e *Engine) decodeTree(data []byte) (*node, Error) {
	var snap snapshot
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &snap); err != nil {
		return nil, ErrCorrupt
	}
	if len(snap.Entries) == 0 || snap.Entries[0].Parent != -1 || !snap.Entries[0].Dir {
		return nil, ErrCorrupt
	}

	nodes := make([]*node, len(snap.Entries))
	for i, entry := range snap.Entries {
		n := e.newNode(entry.Name, entry.Dir)
		n.content = entry.Content
		for _, attr := range entry.Attrs {
			if attr.Tag > 0xFF {
				return nil, ErrCorrupt
			}
			n.attrs[uint8(attr.Tag)] = attr.Value
		}
		nodes[i] = n

		if i == 0 {
			continue
		}
		parent := entry.Parent
		if parent < 0 || int(parent) >= i || !nodes[parent].dir {
			return nil, ErrCorrupt
		}
		n.parent = nodes[parent]
		nodes[parent].children[n.name] = n
	}
	return nodes[0], 0
}

// encodeSuper lays out a superblock header: XDR header bytes followed
// by their CRC32.
func encodeSuper(sb *superblock) ([]byte, Error) {
	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, sb); err != nil {
		return nil, ErrNoMem
	}
	crc := crc32.ChecksumIEEE(buf.Bytes())
	var crcBuf bytes.Buffer
	if _, err := xdr.Marshal(&crcBuf, &crc); err != nil {
		return nil, ErrNoMem
	}
	out := append(buf.Bytes(), crcBuf.Bytes()...)
	if len(out) > superHeaderSize {
		return nil, ErrNoMem
	}
	return out, 0
}

// decodeSuper parses and validates a superblock header read from the
// start of a block. Returns ErrCorrupt for anything unconvincing.
func decodeSuper(data []byte) (*superblock, Error) {
	var sb superblock
	r := bytes.NewReader(data)
	if _, err := xdr.Unmarshal(r, &sb); err != nil {
		return nil, ErrCorrupt
	}
	headerLen := len(data) - r.Len()
	var crc uint32
	if _, err := xdr.Unmarshal(r, &crc); err != nil {
		return nil, ErrCorrupt
	}
	if sb.Magic != superMagic || sb.Version != superVersion {
		return nil, ErrCorrupt
	}
	if crc32.ChecksumIEEE(data[:headerLen]) != crc {
		return nil, ErrCorrupt
	}
	return &sb, 0
}

func sortedAttrTags(attrs map[uint8][]byte) []uint8 {
	tags := make([]uint8, 0, len(attrs))
	for tag := range attrs {
		tags = append(tags, tag)
	}
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tags[j-1] > tags[j]; j-- {
			tags[j-1], tags[j] = tags[j], tags[j-1]
		}
	}
	return tags
}
