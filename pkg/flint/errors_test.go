package flint

import (
	"errors"
	"testing"

	"github.com/flintfs/flintfs/pkg/engine"
	"github.com/flintfs/flintfs/pkg/vfs"
)

// TestTranslateError verifies the engine-to-unified error mapping.
func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want vfs.ErrorCode
	}{
		{"read io", engine.ErrIORead, vfs.ErrReadFailure},
		{"generic io", engine.ErrIO, vfs.ErrReadFailure},
		{"write io", engine.ErrIOWrite, vfs.ErrWriteFailure},
		{"erase io", engine.ErrIOErase, vfs.ErrEraseFailure},
		{"corrupt", engine.ErrCorrupt, vfs.ErrBadFileSystem},
		{"no entry", engine.ErrNoEnt, vfs.ErrNotFound},
		{"exists", engine.ErrExist, vfs.ErrExists},
		{"too big", engine.ErrFBig, vfs.ErrTooBig},
		{"bad descriptor", engine.ErrBadF, vfs.ErrInvalidHandle},
		{"invalid", engine.ErrInval, vfs.ErrBadParam},
		{"no space", engine.ErrNoSpc, vfs.ErrNoSpace},
		{"name too long", engine.ErrNameTooLong, vfs.ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError(tt.in, "/p")
			if !vfs.IsCode(err, tt.want) {
				t.Fatalf("translateError(%v) = %v, want %v", tt.in, err, tt.want)
			}
		})
	}
}

// TestTranslateErrorPassThrough verifies unmapped engine codes keep
// their numeric identity.
func TestTranslateErrorPassThrough(t *testing.T) {
	for _, code := range []engine.Error{
		engine.ErrNotDir, engine.ErrIsDir, engine.ErrNotEmpty,
		engine.ErrNoMem, engine.ErrNoAttr,
	} {
		err := translateError(code, "/p")
		if !vfs.IsCode(err, vfs.ErrEngine) {
			t.Fatalf("translateError(%v) = %v, want engine pass-through", code, err)
		}
		var fsErr *vfs.Error
		if !errors.As(err, &fsErr) || fsErr.EngineCode != int(code) {
			t.Fatalf("EngineCode not preserved for %v", code)
		}
	}
}

// TestTranslateErrorNil verifies nil stays nil.
func TestTranslateErrorNil(t *testing.T) {
	if err := translateError(nil, "/p"); err != nil {
		t.Fatalf("translateError(nil) = %v, want nil", err)
	}
}

// TestTranslateErrorForeign verifies non-engine errors surface as
// device write failures with the original message.
func TestTranslateErrorForeign(t *testing.T) {
	err := translateError(errors.New("disk detached"), "/p")
	if !vfs.IsCode(err, vfs.ErrWriteFailure) {
		t.Fatalf("translateError(foreign) = %v, want %v", err, vfs.ErrWriteFailure)
	}
}
