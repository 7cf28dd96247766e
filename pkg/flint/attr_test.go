package flint

import (
	"bytes"
	"testing"

	"github.com/flintfs/flintfs/pkg/vfs"
)

// TestNoopMetadataWriteCausesNoDeviceTraffic verifies that setting a
// system attribute to its current value never reaches the device: the
// descriptor cache absorbs it and no commit happens on close.
func TestNoopMetadataWriteCausesNoDeviceTraffic(t *testing.T) {
	fs := newTestFS(t)

	h, err := fs.Open("/quiet", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	fs.Write(h, []byte("content"))
	if err := fs.Close(h); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Snapshot the current role, then re-set it identically.
	h, err = fs.Open("/quiet", vfs.OpenWrite)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	var role [1]byte
	if _, err := fs.FGetXAttr(h, vfs.TagReadAce, role[:]); err != nil {
		t.Fatalf("FGetXAttr() failed: %v", err)
	}

	prof := &vfs.CountingProfiler{}
	fs.SetProfiler(prof)

	if err := fs.FSetXAttr(h, vfs.TagReadAce, role[:]); err != nil {
		t.Fatalf("FSetXAttr() failed: %v", err)
	}
	if err := fs.Close(h); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	fs.SetProfiler(nil)

	if prof.WriteCount != 0 || prof.EraseCount != 0 {
		t.Fatalf("no-op metadata write caused device traffic: %s", prof.String())
	}
}

// TestSystemAttributeCacheVisibility verifies FSetXAttr changes are
// visible through FGetXAttr and FStat before any flush, and persist
// after close.
func TestSystemAttributeCacheVisibility(t *testing.T) {
	fs := newTestFS(t)

	h, err := fs.Open("/acl.bin", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	want := vfs.EncodeRole(vfs.RoleManager)
	if err := fs.FSetXAttr(h, vfs.TagWriteAce, want); err != nil {
		t.Fatalf("FSetXAttr() failed: %v", err)
	}

	var got [1]byte
	if _, err := fs.FGetXAttr(h, vfs.TagWriteAce, got[:]); err != nil {
		t.Fatalf("FGetXAttr() failed: %v", err)
	}
	if !bytes.Equal(got[:], want) {
		t.Fatalf("FGetXAttr() = %v, want %v", got, want)
	}

	st, err := fs.FStat(h)
	if err != nil {
		t.Fatalf("FStat() failed: %v", err)
	}
	if st.ACL.WriteAccess != vfs.RoleManager {
		t.Fatalf("FStat WriteAccess = %v, want %v", st.ACL.WriteAccess, vfs.RoleManager)
	}

	if err := fs.Close(h); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	st, err = fs.Stat("/acl.bin")
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if st.ACL.WriteAccess != vfs.RoleManager {
		t.Fatalf("persisted WriteAccess = %v, want %v", st.ACL.WriteAccess, vfs.RoleManager)
	}
}

// TestSystemAttributeValidation verifies size and removal rules for
// system tags.
func TestSystemAttributeValidation(t *testing.T) {
	fs := newTestFS(t)

	h, err := fs.Open("/f", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer fs.Close(h)

	// Wrong size for a fixed-size tag.
	if err := fs.FSetXAttr(h, vfs.TagModifiedTime, []byte{1, 2}); !vfs.IsCode(err, vfs.ErrBadParam) {
		t.Fatalf("FSetXAttr() short time = %v, want %v", err, vfs.ErrBadParam)
	}

	// System tags cannot be removed.
	if err := fs.FSetXAttr(h, vfs.TagModifiedTime, nil); !vfs.IsCode(err, vfs.ErrNotSupported) {
		t.Fatalf("FSetXAttr() nil system = %v, want %v", err, vfs.ErrNotSupported)
	}
	if err := fs.SetXAttr("/f", vfs.TagReadAce, nil); !vfs.IsCode(err, vfs.ErrNotSupported) {
		t.Fatalf("SetXAttr() nil system = %v, want %v", err, vfs.ErrNotSupported)
	}

	// Oversized values are rejected outright.
	big := make([]byte, vfs.AttributeSizeMax+1)
	if err := fs.FSetXAttr(h, vfs.TagUserStart, big); !vfs.IsCode(err, vfs.ErrTooBig) {
		t.Fatalf("FSetXAttr() oversized = %v, want %v", err, vfs.ErrTooBig)
	}
}

// TestShortBufferReturnsSize verifies a too-small buffer for a system
// tag yields the required size and no data.
func TestShortBufferReturnsSize(t *testing.T) {
	fs := newTestFS(t)

	h, err := fs.Open("/f", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer fs.Close(h)

	n, err := fs.FGetXAttr(h, vfs.TagModifiedTime, make([]byte, 2))
	if err != nil {
		t.Fatalf("FGetXAttr() failed: %v", err)
	}
	if n != vfs.TagSize(vfs.TagModifiedTime) {
		t.Fatalf("FGetXAttr() = %d, want required size %d", n, vfs.TagSize(vfs.TagModifiedTime))
	}
}

// TestUserAttributes exercises set/get/remove/enum of caller-defined
// tags, which bypass the descriptor cache.
func TestUserAttributes(t *testing.T) {
	fs := newTestFS(t)

	h, err := fs.Open("/tagged", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	value := []byte("application payload")
	if err := fs.FSetXAttr(h, vfs.TagUserStart, value); err != nil {
		t.Fatalf("FSetXAttr() failed: %v", err)
	}
	if err := fs.FSetXAttr(h, vfs.TagUserStart+1, []byte{0xAB}); err != nil {
		t.Fatalf("FSetXAttr() failed: %v", err)
	}
	if err := fs.Close(h); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	buf := make([]byte, 64)
	n, err := fs.GetXAttr("/tagged", vfs.TagUserStart, buf)
	if err != nil {
		t.Fatalf("GetXAttr() failed: %v", err)
	}
	if !bytes.Equal(buf[:n], value) {
		t.Fatalf("GetXAttr() = %q, want %q", buf[:n], value)
	}

	var seen []vfs.AttributeTag
	err = fs.EnumXAttr("/tagged", func(tag vfs.AttributeTag, value []byte) bool {
		seen = append(seen, tag)
		return true
	})
	if err != nil {
		t.Fatalf("EnumXAttr() failed: %v", err)
	}
	found := 0
	for _, tag := range seen {
		if tag == vfs.TagUserStart || tag == vfs.TagUserStart+1 {
			found++
		}
	}
	if found != 2 {
		t.Fatalf("EnumXAttr() saw tags %v, want both user tags present", seen)
	}

	if err := fs.SetXAttr("/tagged", vfs.TagUserStart, nil); err != nil {
		t.Fatalf("SetXAttr() removal failed: %v", err)
	}
	if _, err := fs.GetXAttr("/tagged", vfs.TagUserStart, buf); !vfs.IsCode(err, vfs.ErrEngine) {
		t.Fatalf("GetXAttr() after removal = %v, want engine pass-through", err)
	}
}

// TestRootACL verifies the root's access control entries are served
// from the adapter cache and survive a remount.
func TestRootACL(t *testing.T) {
	fs := newTestFS(t)

	if err := fs.SetXAttr("/", vfs.TagReadAce, vfs.EncodeRole(vfs.RoleUser)); err != nil {
		t.Fatalf("SetXAttr() on root failed: %v", err)
	}

	var buf [1]byte
	if _, err := fs.GetXAttr("/", vfs.TagReadAce, buf[:]); err != nil {
		t.Fatalf("GetXAttr() on root failed: %v", err)
	}
	if vfs.DecodeRole(buf[:]) != vfs.RoleUser {
		t.Fatalf("root ReadAccess = %v, want %v", vfs.DecodeRole(buf[:]), vfs.RoleUser)
	}

	st, err := fs.Stat("/")
	if err != nil {
		t.Fatalf("Stat() on root failed: %v", err)
	}
	if st.ACL.ReadAccess != vfs.RoleUser {
		t.Fatalf("Stat root ReadAccess = %v, want %v", st.ACL.ReadAccess, vfs.RoleUser)
	}
	if !st.IsDir() {
		t.Fatal("root should report as directory")
	}

	// A new adapter instance over the same partition reloads the cache
	// from the persisted attributes.
	reopened := New(fs.part)
	if err := reopened.Mount(); err != nil {
		t.Fatalf("Mount() failed: %v", err)
	}
	if _, err := reopened.GetXAttr("/", vfs.TagReadAce, buf[:]); err != nil {
		t.Fatalf("GetXAttr() after remount failed: %v", err)
	}
	if vfs.DecodeRole(buf[:]) != vfs.RoleUser {
		t.Fatalf("remounted root ReadAccess = %v, want %v", vfs.DecodeRole(buf[:]), vfs.RoleUser)
	}
}

// TestCompressedStatSynthesis verifies a compression descriptor
// rewrites stat results: original size and the synthetic compressed
// flag.
func TestCompressedStatSynthesis(t *testing.T) {
	fs := newTestFS(t)

	h, err := fs.Open("/packed", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	fs.Write(h, []byte("short"))

	comp := vfs.Compression{Type: vfs.CompressionLZ4, OriginalSize: 1000}
	if err := fs.FSetXAttr(h, vfs.TagCompression, vfs.EncodeCompression(comp)); err != nil {
		t.Fatalf("FSetXAttr() failed: %v", err)
	}
	if err := fs.Close(h); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	st, err := fs.Stat("/packed")
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if !st.Attr.Has(vfs.AttrCompressed) {
		t.Fatal("compressed file should carry the compressed flag")
	}
	if st.Size != 1000 {
		t.Fatalf("Stat Size = %d, want original size 1000", st.Size)
	}
	if st.Compression.Type != vfs.CompressionLZ4 {
		t.Fatalf("Compression.Type = %v, want %v", st.Compression.Type, vfs.CompressionLZ4)
	}
}
