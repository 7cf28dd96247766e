package flint

import (
	"errors"

	"github.com/flintfs/flintfs/pkg/engine"
	"github.com/flintfs/flintfs/pkg/vfs"
)

// translateError converts a storage engine error into the unified
// taxonomy. Engine codes with a structured mapping become the matching
// vfs kind; everything else passes through as vfs.ErrEngine with the
// numeric code preserved for diagnostics. Non-engine errors (from a
// partition backend surfacing its own failure) become write failures.
func translateError(err error, path string) error {
	if err == nil {
		return nil
	}

	var code engine.Error
	if !errors.As(err, &code) {
		return &vfs.Error{
			Code:    vfs.ErrWriteFailure,
			Message: err.Error(),
			Path:    path,
		}
	}

	var kind vfs.ErrorCode
	switch code {
	case engine.ErrIO, engine.ErrIORead:
		kind = vfs.ErrReadFailure
	case engine.ErrIOWrite:
		kind = vfs.ErrWriteFailure
	case engine.ErrIOErase:
		kind = vfs.ErrEraseFailure
	case engine.ErrCorrupt:
		kind = vfs.ErrBadFileSystem
	case engine.ErrNoEnt:
		kind = vfs.ErrNotFound
	case engine.ErrExist:
		kind = vfs.ErrExists
	case engine.ErrFBig:
		kind = vfs.ErrTooBig
	case engine.ErrBadF:
		kind = vfs.ErrInvalidHandle
	case engine.ErrInval:
		kind = vfs.ErrBadParam
	case engine.ErrNoSpc:
		kind = vfs.ErrNoSpace
	case engine.ErrNameTooLong:
		kind = vfs.ErrNameTooLong
	default:
		// Not-a-dir, is-a-dir, not-empty, no-mem, no-attr and any
		// future codes: preserved, described by describeEngineError.
		return &vfs.Error{
			Code:       vfs.ErrEngine,
			Message:    describeEngineError(code),
			Path:       path,
			EngineCode: int(code),
		}
	}
	return &vfs.Error{Code: kind, Message: kind.String(), Path: path}
}

// describeEngineError returns the short human-readable tag for an
// engine code outside the structured mapping.
func describeEngineError(code engine.Error) string {
	return code.Error()
}
