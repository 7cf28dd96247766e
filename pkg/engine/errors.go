package engine

import "fmt"

// Error is a storage engine error code. Codes are negative, following
// the engine's on-the-wire convention; the zero value means success and
// is never returned as an error.
//
// The adapter above translates these into its unified taxonomy. Codes
// that have no structured translation pass through with their numeric
// value preserved.
type Error int

const (
	// ErrIO is an unclassified device operation failure
	ErrIO Error = -5

	// ErrCorrupt indicates on-disk structures failed validation
	ErrCorrupt Error = -84

	// ErrNoEnt indicates no entry exists at the given path
	ErrNoEnt Error = -2

	// ErrExist indicates an entry already exists
	ErrExist Error = -17

	// ErrNotDir indicates a path component is not a directory
	ErrNotDir Error = -20

	// ErrIsDir indicates the entry is a directory
	ErrIsDir Error = -21

	// ErrNotEmpty indicates a directory still has entries
	ErrNotEmpty Error = -39

	// ErrBadF indicates a file not open for the attempted access
	ErrBadF Error = -9

	// ErrFBig indicates the file would exceed the size limit
	ErrFBig Error = -27

	// ErrInval indicates an invalid parameter
	ErrInval Error = -22

	// ErrNoSpc indicates the device is full
	ErrNoSpc Error = -28

	// ErrNoMem indicates an allocation failed
	ErrNoMem Error = -12

	// ErrNoAttr indicates the requested attribute does not exist
	ErrNoAttr Error = -61

	// ErrNameTooLong indicates an entry name over NameMax
	ErrNameTooLong Error = -36
)

// Device sub-codes reported by the block bridge, not by the engine
// itself. They keep device-level failures distinguishable from engine
// corruption as they propagate up through engine entry points.
const (
	// ErrIORead is a device read failure
	ErrIORead Error = -101

	// ErrIOWrite is a device program failure
	ErrIOWrite Error = -102

	// ErrIOErase is a device erase failure
	ErrIOErase Error = -103
)

var errorStrings = map[Error]string{
	ErrIO:          "input/output error",
	ErrCorrupt:     "corrupted",
	ErrNoEnt:       "no such entry",
	ErrExist:       "entry already exists",
	ErrNotDir:      "entry is not a dir",
	ErrIsDir:       "entry is a dir",
	ErrNotEmpty:    "dir is not empty",
	ErrBadF:        "bad file number",
	ErrFBig:        "file too large",
	ErrInval:       "invalid parameter",
	ErrNoSpc:       "no space left on device",
	ErrNoMem:       "no more memory available",
	ErrNoAttr:      "no data/attr available",
	ErrNameTooLong: "file name too long",
	ErrIORead:      "device read failure",
	ErrIOWrite:     "device write failure",
	ErrIOErase:     "device erase failure",
}

// Error implements the error interface.
func (e Error) Error() string {
	if s, ok := errorStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("engine error %d", int(e))
}
