package vfs

import (
	"errors"
	"fmt"
)

// Error is the unified error returned by every filesystem operation.
//
// These are domain errors (file not found, read-only, out of handles)
// as opposed to failures internal to the wrapped storage engine.
// Engine failures that have no unified kind pass through as ErrEngine
// with the original negative code preserved for diagnostics.
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the filesystem path related to the error (if applicable)
	Path string

	// EngineCode preserves the storage engine's negative error code
	// when Code is ErrEngine
	EngineCode int
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.String()
	}
	if e.Code == ErrEngine {
		msg = fmt.Sprintf("%s (engine %d)", msg, e.EngineCode)
	}
	if e.Path != "" {
		return msg + ": " + e.Path
	}
	return msg
}

// ErrorCode represents the category of a filesystem error.
type ErrorCode int

const (
	// ErrNotMounted indicates the operation requires a mounted volume
	ErrNotMounted ErrorCode = iota

	// ErrNoPartition indicates no partition is bound to the filesystem
	ErrNoPartition

	// ErrBadPartition indicates the bound partition is unusable
	// (wrong subtype, or too small to hold a single block)
	ErrBadPartition

	// ErrInvalidHandle indicates a file handle outside the valid range
	ErrInvalidHandle

	// ErrFileNotOpen indicates a handle in range but with no open file
	ErrFileNotOpen

	// ErrReadOnly indicates the entry's read-only attribute blocked a
	// write or removal
	ErrReadOnly

	// ErrNotSupported indicates the request has no engine equivalent
	ErrNotSupported

	// ErrBadParam indicates invalid parameters were provided
	ErrBadParam

	// ErrOutOfMemory indicates an allocation failed
	ErrOutOfMemory

	// ErrOutOfFileDescriptors indicates the descriptor table is full
	ErrOutOfFileDescriptors

	// ErrNoMoreFiles signals the end of a directory enumeration.
	// It is a condition, not a failure.
	ErrNoMoreFiles

	// ErrNameTooLong indicates an entry name over the engine limit
	ErrNameTooLong

	// ErrNotFound indicates the entry does not exist
	ErrNotFound

	// ErrExists indicates the entry already exists
	ErrExists

	// ErrTooBig indicates the file exceeds the engine's size limit
	ErrTooBig

	// ErrNoSpace indicates the volume is full
	ErrNoSpace

	// ErrNotImplemented indicates the operation is not available in
	// this integration
	ErrNotImplemented

	// ErrReadFailure indicates a device-level read failed
	ErrReadFailure

	// ErrWriteFailure indicates a device-level program or sync failed
	ErrWriteFailure

	// ErrEraseFailure indicates a device-level erase failed
	ErrEraseFailure

	// ErrBadFileSystem indicates on-disk structures failed validation
	ErrBadFileSystem

	// ErrEngine passes through an engine error with no unified kind;
	// the numeric code is preserved in EngineCode
	ErrEngine
)

var errorCodeStrings = map[ErrorCode]string{
	ErrNotMounted:           "not mounted",
	ErrNoPartition:          "no partition",
	ErrBadPartition:         "bad partition",
	ErrInvalidHandle:        "invalid handle",
	ErrFileNotOpen:          "file not open",
	ErrReadOnly:             "read-only",
	ErrNotSupported:         "not supported",
	ErrBadParam:             "bad parameter",
	ErrOutOfMemory:          "out of memory",
	ErrOutOfFileDescriptors: "out of file descriptors",
	ErrNoMoreFiles:          "no more files",
	ErrNameTooLong:          "name too long",
	ErrNotFound:             "not found",
	ErrExists:               "already exists",
	ErrTooBig:               "too big",
	ErrNoSpace:              "no space",
	ErrNotImplemented:       "not implemented",
	ErrReadFailure:          "read failure",
	ErrWriteFailure:         "write failure",
	ErrEraseFailure:         "erase failure",
	ErrBadFileSystem:        "bad filesystem",
	ErrEngine:               "engine error",
}

// String returns the human-readable tag for the code.
func (c ErrorCode) String() string {
	if s, ok := errorCodeStrings[c]; ok {
		return s
	}
	return fmt.Sprintf("error(%d)", int(c))
}

// NewError builds an Error for the given code and path.
func NewError(code ErrorCode, path string) *Error {
	return &Error{Code: code, Message: code.String(), Path: path}
}

// IsCode reports whether err is a filesystem Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var fsErr *Error
	return errors.As(err, &fsErr) && fsErr.Code == code
}
