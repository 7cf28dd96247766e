package vfs

// FileSystem is the generic filesystem interface consumed by the
// application runtime.
//
// Implementations adapt a concrete storage engine to this surface.
// They translate their engine's error space into *Error values, so a
// caller sees one unified taxonomy regardless of the backing engine.
//
// Concurrency:
// Operations are synchronous and run to completion on the caller's
// thread. Implementations perform no internal locking; callers that
// share one instance across goroutines must serialize access
// themselves.
type FileSystem interface {
	// Mount attaches the bound partition and brings the volume online.
	// A failed mount may attempt one automatic format-and-retry repair.
	Mount() error

	// Format re-initializes the volume, destroying all content.
	// The volume is left mounted on success.
	Format() error

	// Check verifies volume integrity. Implementations without a
	// checker return ErrNotImplemented.
	Check() error

	// GetInfo reports volume capacity and state.
	GetInfo() (*Info, error)

	// SetProfiler attaches (or with nil, detaches) a device I/O
	// observer. Not safe to call while operations are in flight.
	SetProfiler(p Profiler)

	// Open opens the file at path and returns its handle.
	Open(path string, flags OpenFlags) (FileHandle, error)

	// Close flushes cached metadata, closes the file and frees the
	// handle. The handle is invalid afterwards even if Close fails.
	Close(h FileHandle) error

	// Read reads up to len(buf) bytes from the current position.
	// Returns the number of bytes read; 0 at end of file.
	Read(h FileHandle, buf []byte) (int, error)

	// Write writes len(buf) bytes at the current position and updates
	// the cached modification time.
	Write(h FileHandle, buf []byte) (int, error)

	// Seek repositions the file offset and returns the new position.
	Seek(h FileHandle, offset int64, origin SeekOrigin) (int64, error)

	// Tell returns the current file position.
	Tell(h FileHandle) (int64, error)

	// Eof reports whether the position is at or past the end of file.
	Eof(h FileHandle) (bool, error)

	// Truncate changes the file size.
	Truncate(h FileHandle, size uint32) error

	// Flush writes back dirty cached metadata and syncs file content.
	Flush(h FileHandle) error

	// Stat describes the entry at path.
	Stat(path string) (*Stat, error)

	// FStat describes an open file from its cached metadata.
	FStat(h FileHandle) (*Stat, error)

	// SetXAttr sets an extended attribute by path. A nil value removes
	// the attribute; system tags cannot be removed.
	SetXAttr(path string, tag AttributeTag, value []byte) error

	// GetXAttr reads an extended attribute by path into buf and
	// returns the value size. A short buf yields only the size.
	GetXAttr(path string, tag AttributeTag, buf []byte) (int, error)

	// EnumXAttr enumerates attributes of the entry at path.
	EnumXAttr(path string, fn AttributeEnumFunc) error

	// FSetXAttr sets an extended attribute on an open file. System
	// tags update the handle's metadata cache; the engine is written
	// on Flush or Close.
	FSetXAttr(h FileHandle, tag AttributeTag, value []byte) error

	// FGetXAttr reads an extended attribute from an open file, served
	// from the cache for system tags.
	FGetXAttr(h FileHandle, tag AttributeTag, buf []byte) (int, error)

	// FEnumXAttr enumerates attributes of an open file.
	FEnumXAttr(h FileHandle, fn AttributeEnumFunc) error

	// OpenDir opens a directory cursor positioned at the first real
	// entry ("." and ".." are never returned).
	OpenDir(path string) (Directory, error)

	// Mkdir creates a directory and stamps its modification time.
	// Creating an existing directory succeeds.
	Mkdir(path string) error

	// Rename moves an entry. Neither path may be the volume root.
	Rename(oldPath, newPath string) error

	// Remove deletes the entry at path, honoring the read-only flag.
	Remove(path string) error

	// FRemove deletes a currently open file. Not supported by this
	// engine integration; returns ErrNotImplemented.
	FRemove(h FileHandle) error
}

// Directory is a cursor over one directory's entries, owned by the
// caller between OpenDir and Close.
type Directory interface {
	// Read fills stat with the next entry, or returns ErrNoMoreFiles
	// when the enumeration is exhausted.
	Read(stat *Stat) error

	// Rewind repositions the cursor at the first real entry.
	Rewind() error

	// Close releases the cursor.
	Close() error
}
