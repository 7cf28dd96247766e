package vfs

import "time"

// FileHandle identifies one open file.
//
// Handles are small integers drawn from a fixed range reserved by the
// filesystem implementation. A handle is valid from Open until Close and
// is recycled afterwards; callers must not use a handle after closing it.
type FileHandle int32

// OpenFlags controls how Open accesses a file.
type OpenFlags uint8

const (
	// OpenRead requests read access
	OpenRead OpenFlags = 1 << iota

	// OpenWrite requests write access
	OpenWrite

	// OpenCreate creates the file if it does not exist
	OpenCreate

	// OpenAppend positions every write at the end of the file
	OpenAppend

	// OpenTruncate discards existing content on open
	OpenTruncate

	// OpenReadWrite requests both read and write access
	OpenReadWrite = OpenRead | OpenWrite
)

// Has reports whether all bits in flag are set.
func (f OpenFlags) Has(flag OpenFlags) bool {
	return f&flag == flag
}

// SeekOrigin is the reference point for Seek offsets.
type SeekOrigin int

const (
	SeekStart   SeekOrigin = 0
	SeekCurrent SeekOrigin = 1
	SeekEnd     SeekOrigin = 2
)

// FileAttributes is the bit set stored behind the file-attributes tag.
type FileAttributes uint8

const (
	// AttrReadOnly marks the file immutable; write opens and removal fail
	AttrReadOnly FileAttributes = 1 << iota

	// AttrArchive marks the file as modified since the flag was last cleared
	AttrArchive

	// AttrCompressed indicates content is stored compressed; see the
	// compression descriptor attribute for the scheme
	AttrCompressed

	// AttrDirectory distinguishes directories in stat results.
	// Synthesized from the entry type, never persisted.
	AttrDirectory
)

// Has reports whether all bits in attr are set.
func (a FileAttributes) Has(attr FileAttributes) bool {
	return a&attr == attr
}

// UserRole is the access level recorded in an access-control entry.
// Higher values grant broader access.
type UserRole uint8

const (
	RoleNone UserRole = iota
	RoleGuest
	RoleUser
	RoleManager
	RoleAdmin
)

// ACL carries the two access-control entries persisted per file:
// the minimum role required to read and to write.
type ACL struct {
	ReadAccess  UserRole
	WriteAccess UserRole
}

// CompressionType identifies the scheme named by a compression descriptor.
type CompressionType uint8

const (
	CompressionNone CompressionType = iota
	CompressionGZip
	CompressionLZ4
)

// Compression describes how file content is stored. OriginalSize is the
// uncompressed length, needed to size buffers before expanding.
type Compression struct {
	Type         CompressionType
	OriginalSize uint32
}

// TimeStamp is a modification time in UTC seconds since the Unix epoch.
type TimeStamp int64

// TimeNow returns the current time as a TimeStamp.
func TimeNow() TimeStamp {
	return TimeStamp(time.Now().UTC().Unix())
}

// Time converts the timestamp to a time.Time in UTC.
func (t TimeStamp) Time() time.Time {
	return time.Unix(int64(t), 0).UTC()
}

// Stat describes one filesystem entry. It is assembled per call from the
// engine's native entry info plus the system attributes, and is never
// retained by the filesystem.
type Stat struct {
	// Name is the entry name without any path prefix
	Name string

	// Size is the content size in bytes
	Size uint32

	// ID is the engine-native identifier of the entry, when available
	ID uint32

	// MTime is the last modification time
	MTime TimeStamp

	// ACL holds the read/write access-control entries
	ACL ACL

	// Attr holds the file-attribute flags
	Attr FileAttributes

	// Compression describes the stored content encoding
	Compression Compression
}

// IsDir reports whether the entry is a directory.
func (s *Stat) IsDir() bool {
	return s.Attr.Has(AttrDirectory)
}

// Info reports volume-level information from GetInfo.
type Info struct {
	// Type names the filesystem implementation (e.g. "flintfs")
	Type string

	// Mounted reports whether the volume is currently mounted.
	// Size fields below are only populated while mounted.
	Mounted bool

	// VolumeSize is the total capacity in bytes
	VolumeSize uint64

	// FreeSpace is the unallocated capacity in bytes
	FreeSpace uint64

	// MaxNameLength is the longest supported entry name
	MaxNameLength int

	// MaxPathLength is the longest supported path
	MaxPathLength int
}

// Used returns the number of allocated bytes.
func (i *Info) Used() uint64 {
	return i.VolumeSize - i.FreeSpace
}
