package vfs

import "encoding/binary"

// AttributeTag identifies one piece of per-entry extended metadata.
//
// Tags below TagUserStart are system tags with fixed sizes, persisted
// through the engine's attribute primitive and cached on open file
// handles. Tags from TagUserStart up are caller-defined with
// caller-defined sizes.
type AttributeTag uint8

const (
	// TagModifiedTime is the modification time (8 bytes, int64 Unix UTC)
	TagModifiedTime AttributeTag = iota

	// TagReadAce is the role required to read (1 byte)
	TagReadAce

	// TagWriteAce is the role required to write (1 byte)
	TagWriteAce

	// TagCompression is the compression descriptor (8 bytes)
	TagCompression

	// TagFileAttributes is the file-attribute flag set (1 byte)
	TagFileAttributes

	// TagUserStart is the first caller-defined tag
	TagUserStart AttributeTag = 16
)

// AttributeSizeMax is the largest attribute value the engine will store.
const AttributeSizeMax = 1022

const (
	sizeModifiedTime   = 8
	sizeAce            = 1
	sizeCompression    = 8
	sizeFileAttributes = 1
)

// IsUser reports whether the tag lies in the caller-defined range.
func (t AttributeTag) IsUser() bool {
	return t >= TagUserStart
}

// TagSize returns the fixed value size for system tags.
// For user tags it returns 0: the caller-supplied size is authoritative.
func TagSize(tag AttributeTag) int {
	switch tag {
	case TagModifiedTime:
		return sizeModifiedTime
	case TagReadAce, TagWriteAce:
		return sizeAce
	case TagCompression:
		return sizeCompression
	case TagFileAttributes:
		return sizeFileAttributes
	default:
		return 0
	}
}

// System attribute values travel as little-endian fixed-size records so
// they round-trip bit-exact through the engine's opaque attribute store.

// EncodeTime encodes a timestamp attribute value.
func EncodeTime(t TimeStamp) []byte {
	buf := make([]byte, sizeModifiedTime)
	binary.LittleEndian.PutUint64(buf, uint64(t))
	return buf
}

// DecodeTime decodes a timestamp attribute value.
// Short buffers decode as the zero time.
func DecodeTime(buf []byte) TimeStamp {
	if len(buf) < sizeModifiedTime {
		return 0
	}
	return TimeStamp(binary.LittleEndian.Uint64(buf))
}

// EncodeRole encodes an access-control entry value.
func EncodeRole(r UserRole) []byte {
	return []byte{byte(r)}
}

// DecodeRole decodes an access-control entry value.
func DecodeRole(buf []byte) UserRole {
	if len(buf) < sizeAce {
		return RoleNone
	}
	return UserRole(buf[0])
}

// EncodeFileAttributes encodes a file-attributes value.
func EncodeFileAttributes(a FileAttributes) []byte {
	return []byte{byte(a)}
}

// DecodeFileAttributes decodes a file-attributes value.
func DecodeFileAttributes(buf []byte) FileAttributes {
	if len(buf) < sizeFileAttributes {
		return 0
	}
	return FileAttributes(buf[0])
}

// EncodeCompression encodes a compression descriptor value.
func EncodeCompression(c Compression) []byte {
	buf := make([]byte, sizeCompression)
	buf[0] = byte(c.Type)
	binary.LittleEndian.PutUint32(buf[4:], c.OriginalSize)
	return buf
}

// DecodeCompression decodes a compression descriptor value.
func DecodeCompression(buf []byte) Compression {
	if len(buf) < sizeCompression {
		return Compression{}
	}
	return Compression{
		Type:         CompressionType(buf[0]),
		OriginalSize: binary.LittleEndian.Uint32(buf[4:]),
	}
}

// AttributeEnumFunc receives one attribute per call during enumeration.
// Returning false stops the enumeration early.
type AttributeEnumFunc func(tag AttributeTag, value []byte) bool
