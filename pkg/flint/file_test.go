package flint

import (
	"bytes"
	"testing"

	"github.com/flintfs/flintfs/pkg/vfs"
)

// TestWriteFlushReopenRead verifies the basic content roundtrip: data
// written and flushed is identical when read back through a new handle.
func TestWriteFlushReopenRead(t *testing.T) {
	fs := newTestFS(t)

	content := []byte("flash is erased to 0xFF, programmed toward 0")
	h, err := fs.Open("/roundtrip.txt", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() for write failed: %v", err)
	}
	n, err := fs.Write(h, content)
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if n != len(content) {
		t.Fatalf("Write() = %d bytes, want %d", n, len(content))
	}
	if err := fs.Flush(h); err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
	if err := fs.Close(h); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	h, err = fs.Open("/roundtrip.txt", vfs.OpenRead)
	if err != nil {
		t.Fatalf("Open() for read failed: %v", err)
	}
	defer fs.Close(h)

	buf := make([]byte, len(content)*2)
	n, err = fs.Read(h, buf)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if !bytes.Equal(buf[:n], content) {
		t.Fatalf("Read() = %q, want %q", buf[:n], content)
	}

	eof, err := fs.Eof(h)
	if err != nil {
		t.Fatalf("Eof() failed: %v", err)
	}
	if !eof {
		t.Fatal("Eof() should report true after draining the file")
	}
}

// TestOpenFlagValidation verifies flag handling on Open.
func TestOpenFlagValidation(t *testing.T) {
	fs := newTestFS(t)

	if _, err := fs.Open("/missing", vfs.OpenRead); !vfs.IsCode(err, vfs.ErrNotFound) {
		t.Fatalf("Open() missing file = %v, want %v", err, vfs.ErrNotFound)
	}
	if _, err := fs.Open("/x", vfs.OpenFlags(0x80)|vfs.OpenRead); !vfs.IsCode(err, vfs.ErrNotSupported) {
		t.Fatalf("Open() with unknown flag = %v, want %v", err, vfs.ErrNotSupported)
	}
}

// TestReadOnlyAttributeBlocksWriteOpen verifies the read-only file
// attribute is honored before the engine sees the open.
func TestReadOnlyAttributeBlocksWriteOpen(t *testing.T) {
	fs := newTestFS(t)

	h, err := fs.Open("/locked.txt", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := fs.Close(h); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	attr := vfs.EncodeFileAttributes(vfs.AttrReadOnly)
	if err := fs.SetXAttr("/locked.txt", vfs.TagFileAttributes, attr); err != nil {
		t.Fatalf("SetXAttr() failed: %v", err)
	}

	if _, err := fs.Open("/locked.txt", vfs.OpenWrite); !vfs.IsCode(err, vfs.ErrReadOnly) {
		t.Fatalf("Open() for write = %v, want %v", err, vfs.ErrReadOnly)
	}
	if err := fs.Remove("/locked.txt"); !vfs.IsCode(err, vfs.ErrReadOnly) {
		t.Fatalf("Remove() = %v, want %v", err, vfs.ErrReadOnly)
	}

	// Reading stays allowed.
	h, err = fs.Open("/locked.txt", vfs.OpenRead)
	if err != nil {
		t.Fatalf("Open() for read failed: %v", err)
	}
	fs.Close(h)
}

// TestWriteOnReadOnlyHandle verifies a write through a handle opened
// without write access fails without touching the engine.
func TestWriteOnReadOnlyHandle(t *testing.T) {
	fs := newTestFS(t)

	h, err := fs.Open("/f", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	fs.Write(h, []byte("data"))
	fs.Close(h)

	h, err = fs.Open("/f", vfs.OpenRead)
	if err != nil {
		t.Fatalf("Open() for read failed: %v", err)
	}
	defer fs.Close(h)

	if _, err := fs.Write(h, []byte("nope")); !vfs.IsCode(err, vfs.ErrReadOnly) {
		t.Fatalf("Write() on read handle = %v, want %v", err, vfs.ErrReadOnly)
	}
	if err := fs.Truncate(h, 0); !vfs.IsCode(err, vfs.ErrReadOnly) {
		t.Fatalf("Truncate() on read handle = %v, want %v", err, vfs.ErrReadOnly)
	}
}

// TestDescriptorExhaustion verifies the fixed descriptor table: the
// first MaxFileDescriptors opens succeed, the next fails, and the
// earlier handles stay usable.
func TestDescriptorExhaustion(t *testing.T) {
	fs := newTestFS(t)

	handles := make([]vfs.FileHandle, 0, MaxFileDescriptors)
	for i := 0; i < MaxFileDescriptors; i++ {
		h, err := fs.Open("/shared", vfs.OpenWrite|vfs.OpenCreate)
		if err != nil {
			t.Fatalf("Open() %d failed: %v", i, err)
		}
		if h < HandleMin || h > HandleMax {
			t.Fatalf("handle %d outside [%d, %d]", h, HandleMin, HandleMax)
		}
		handles = append(handles, h)
	}

	if _, err := fs.Open("/shared", vfs.OpenRead); !vfs.IsCode(err, vfs.ErrOutOfFileDescriptors) {
		t.Fatalf("Open() past table = %v, want %v", err, vfs.ErrOutOfFileDescriptors)
	}

	for _, h := range handles {
		if _, err := fs.Tell(h); err != nil {
			t.Fatalf("Tell(%d) on live handle failed: %v", h, err)
		}
	}

	// Closing one slot frees it for reuse.
	if err := fs.Close(handles[0]); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	h, err := fs.Open("/shared", vfs.OpenRead)
	if err != nil {
		t.Fatalf("Open() after Close() failed: %v", err)
	}
	if h != handles[0] {
		t.Fatalf("reused handle = %d, want %d", h, handles[0])
	}
	for _, h := range handles[1:] {
		fs.Close(h)
	}
	fs.Close(h)
}

// TestHandleValidation verifies the two distinct handle failure kinds.
func TestHandleValidation(t *testing.T) {
	fs := newTestFS(t)

	tests := []struct {
		name   string
		handle vfs.FileHandle
		want   vfs.ErrorCode
	}{
		{"below range", HandleMin - 1, vfs.ErrInvalidHandle},
		{"above range", HandleMax + 1, vfs.ErrInvalidHandle},
		{"in range but closed", HandleMin, vfs.ErrFileNotOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := fs.Read(tt.handle, make([]byte, 4)); !vfs.IsCode(err, tt.want) {
				t.Fatalf("Read() = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestSeekTellTruncate exercises positioning and resizing.
func TestSeekTellTruncate(t *testing.T) {
	fs := newTestFS(t)

	h, err := fs.Open("/pos", vfs.OpenReadWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer fs.Close(h)

	if _, err := fs.Write(h, []byte("0123456789")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	pos, err := fs.Seek(h, -4, vfs.SeekEnd)
	if err != nil {
		t.Fatalf("Seek(end-4) failed: %v", err)
	}
	if pos != 6 {
		t.Fatalf("Seek() = %d, want 6", pos)
	}

	buf := make([]byte, 4)
	if _, err := fs.Read(h, buf); err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if string(buf) != "6789" {
		t.Fatalf("Read() = %q, want %q", buf, "6789")
	}

	pos, err = fs.Tell(h)
	if err != nil {
		t.Fatalf("Tell() failed: %v", err)
	}
	if pos != 10 {
		t.Fatalf("Tell() = %d, want 10", pos)
	}

	if _, err := fs.Seek(h, -20, vfs.SeekStart); !vfs.IsCode(err, vfs.ErrBadParam) {
		t.Fatalf("Seek() before start = %v, want %v", err, vfs.ErrBadParam)
	}

	if err := fs.Truncate(h, 4); err != nil {
		t.Fatalf("Truncate() failed: %v", err)
	}
	st, err := fs.FStat(h)
	if err != nil {
		t.Fatalf("FStat() failed: %v", err)
	}
	if st.Size != 4 {
		t.Fatalf("Size after truncate = %d, want 4", st.Size)
	}
}

// TestAppendMode verifies writes land at end of file regardless of the
// current position.
func TestAppendMode(t *testing.T) {
	fs := newTestFS(t)

	h, err := fs.Open("/log", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	fs.Write(h, []byte("first"))
	fs.Close(h)

	h, err = fs.Open("/log", vfs.OpenWrite|vfs.OpenAppend)
	if err != nil {
		t.Fatalf("Open() append failed: %v", err)
	}
	if _, err := fs.Seek(h, 0, vfs.SeekStart); err != nil {
		t.Fatalf("Seek() failed: %v", err)
	}
	fs.Write(h, []byte("-second"))
	fs.Close(h)

	h, _ = fs.Open("/log", vfs.OpenRead)
	defer fs.Close(h)
	buf := make([]byte, 32)
	n, _ := fs.Read(h, buf)
	if string(buf[:n]) != "first-second" {
		t.Fatalf("content = %q, want %q", buf[:n], "first-second")
	}
}

// TestStatAndFStat verifies the two stat paths agree and that FStat
// shows cached metadata before it reaches the device.
func TestStatAndFStat(t *testing.T) {
	fs := newTestFS(t)

	h, err := fs.Open("/stat.me", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	fs.Write(h, []byte("payload"))

	fst, err := fs.FStat(h)
	if err != nil {
		t.Fatalf("FStat() failed: %v", err)
	}
	if fst.Name != "stat.me" {
		t.Fatalf("FStat Name = %q, want %q", fst.Name, "stat.me")
	}
	if fst.Size != 7 {
		t.Fatalf("FStat Size = %d, want 7", fst.Size)
	}
	if fst.MTime == 0 {
		t.Fatal("FStat MTime should be stamped by the write")
	}
	if err := fs.Close(h); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	st, err := fs.Stat("/stat.me")
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if st.Name != fst.Name || st.Size != fst.Size || st.MTime != fst.MTime {
		t.Fatalf("Stat() = %+v, FStat() = %+v; should agree after close", st, fst)
	}
	if st.IsDir() {
		t.Fatal("regular file should not report as directory")
	}
}

// TestRename exercises moving and the root rejection.
func TestRename(t *testing.T) {
	fs := newTestFS(t)

	h, _ := fs.Open("/old", vfs.OpenWrite|vfs.OpenCreate)
	fs.Write(h, []byte("x"))
	fs.Close(h)
	if err := fs.Mkdir("/sub"); err != nil {
		t.Fatalf("Mkdir() failed: %v", err)
	}

	if err := fs.Rename("/old", "/sub/new"); err != nil {
		t.Fatalf("Rename() failed: %v", err)
	}
	if _, err := fs.Stat("/old"); !vfs.IsCode(err, vfs.ErrNotFound) {
		t.Fatalf("Stat() old = %v, want %v", err, vfs.ErrNotFound)
	}
	if _, err := fs.Stat("/sub/new"); err != nil {
		t.Fatalf("Stat() new failed: %v", err)
	}

	if err := fs.Rename("/", "/rooted"); !vfs.IsCode(err, vfs.ErrBadParam) {
		t.Fatalf("Rename() of root = %v, want %v", err, vfs.ErrBadParam)
	}
	if err := fs.Rename("/missing", "/dst"); !vfs.IsCode(err, vfs.ErrNotFound) {
		t.Fatalf("Rename() missing = %v, want %v", err, vfs.ErrNotFound)
	}
}

// TestFRemoveNotImplemented verifies handle-based removal reports the
// missing engine capability, but still honors the read-only flag first.
func TestFRemoveNotImplemented(t *testing.T) {
	fs := newTestFS(t)

	h, err := fs.Open("/f", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer fs.Close(h)

	if err := fs.FRemove(h); !vfs.IsCode(err, vfs.ErrNotImplemented) {
		t.Fatalf("FRemove() = %v, want %v", err, vfs.ErrNotImplemented)
	}

	attr := vfs.EncodeFileAttributes(vfs.AttrReadOnly)
	if err := fs.FSetXAttr(h, vfs.TagFileAttributes, attr); err != nil {
		t.Fatalf("FSetXAttr() failed: %v", err)
	}
	if err := fs.FRemove(h); !vfs.IsCode(err, vfs.ErrReadOnly) {
		t.Fatalf("FRemove() on read-only = %v, want %v", err, vfs.ErrReadOnly)
	}
}

// TestNameTooLong verifies the engine name limit surfaces as the
// unified kind.
func TestNameTooLong(t *testing.T) {
	fs := newTestFS(t)

	long := "/" + string(bytes.Repeat([]byte{'a'}, 300))
	if _, err := fs.Open(long, vfs.OpenWrite|vfs.OpenCreate); !vfs.IsCode(err, vfs.ErrNameTooLong) {
		t.Fatalf("Open() = %v, want %v", err, vfs.ErrNameTooLong)
	}
}
