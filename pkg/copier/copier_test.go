package copier

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/flintfs/flintfs/pkg/flint"
	"github.com/flintfs/flintfs/pkg/partition"
	"github.com/flintfs/flintfs/pkg/partition/memory"
	"github.com/flintfs/flintfs/pkg/vfs"
)

// newTestVolume returns a mounted filesystem over a memory partition.
func newTestVolume(t *testing.T) vfs.FileSystem {
	t.Helper()
	fs := flint.New(memory.New(128*flint.BlockSize, partition.SubTypeFlintFS))
	if err := fs.Format(); err != nil {
		t.Fatalf("Format() failed: %v", err)
	}
	return fs
}

// writeHostTree lays out a small host directory tree for import tests.
func writeHostTree(t *testing.T, root string) map[string][]byte {
	t.Helper()
	files := map[string][]byte{
		"readme.txt":        []byte("top level file\n"),
		"docs/guide.md":     bytes.Repeat([]byte("compressible line of text\n"), 100),
		"docs/img/logo.bin": {0x00, 0x01, 0x02, 0x03},
	}
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll() failed: %v", err)
		}
		if err := os.WriteFile(full, content, 0o644); err != nil {
			t.Fatalf("WriteFile() failed: %v", err)
		}
	}
	return files
}

// TestImportExportRoundTrip verifies a host tree survives import and
// export unchanged.
func TestImportExportRoundTrip(t *testing.T) {
	fs := newTestVolume(t)
	src := t.TempDir()
	files := writeHostTree(t, src)

	c := New(fs)
	if err := c.Import(src, "/"); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	dst := t.TempDir()
	if err := c.Export("/", dst); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	for rel, want := range files {
		got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("exported %s missing: %v", rel, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("exported %s differs from original", rel)
		}
	}
}

// TestImportWithLZ4 verifies compressible files get stored compressed
// and still export bit-exact.
func TestImportWithLZ4(t *testing.T) {
	fs := newTestVolume(t)
	src := t.TempDir()
	files := writeHostTree(t, src)

	c := New(fs, WithLZ4(64))
	if err := c.Import(src, "/"); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	st, err := fs.Stat("/docs/guide.md")
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if st.Compression.Type != vfs.CompressionLZ4 {
		t.Fatalf("Compression.Type = %v, want %v", st.Compression.Type, vfs.CompressionLZ4)
	}
	if !st.Attr.Has(vfs.AttrCompressed) {
		t.Fatal("compressed file should carry the compressed flag")
	}
	want := files["docs/guide.md"]
	if st.Size != uint32(len(want)) {
		t.Fatalf("Stat Size = %d, want original size %d", st.Size, len(want))
	}

	// Files below the threshold stay uncompressed.
	st, err = fs.Stat("/docs/img/logo.bin")
	if err != nil {
		t.Fatalf("Stat() failed: %v", err)
	}
	if st.Compression.Type != vfs.CompressionNone {
		t.Fatalf("small file Compression.Type = %v, want none", st.Compression.Type)
	}

	dst := t.TempDir()
	if err := c.Export("/", dst); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dst, "docs", "guide.md"))
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatal("compressed roundtrip corrupted content")
	}
}

// TestImportPreservesModTime verifies host modification times carry
// into the volume.
func TestImportPreservesModTime(t *testing.T) {
	fs := newTestVolume(t)
	src := t.TempDir()
	writeHostTree(t, src)

	c := New(fs)
	if err := c.Import(src, "/"); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	hostInfo, err := os.Stat(filepath.Join(src, "readme.txt"))
	if err != nil {
		t.Fatalf("Stat() host failed: %v", err)
	}
	st, err := fs.Stat("/readme.txt")
	if err != nil {
		t.Fatalf("Stat() volume failed: %v", err)
	}
	if int64(st.MTime) != hostInfo.ModTime().Unix() {
		t.Fatalf("MTime = %d, want %d", st.MTime, hostInfo.ModTime().Unix())
	}
}

// TestExportIntoNestedTarget verifies export creates the host target
// directory tree.
func TestExportIntoNestedTarget(t *testing.T) {
	fs := newTestVolume(t)
	if err := fs.Mkdir("/data"); err != nil {
		t.Fatalf("Mkdir() failed: %v", err)
	}
	h, err := fs.Open("/data/f", vfs.OpenWrite|vfs.OpenCreate)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	fs.Write(h, []byte("x"))
	fs.Close(h)

	dst := filepath.Join(t.TempDir(), "deep", "nested", "out")
	if err := New(fs).Export("/data", dst); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "f")); err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
}
