// Package copier moves file trees between the host filesystem and a
// mounted volume. It drives the volume purely through the vfs
// interface, so it works against any filesystem implementation.
package copier

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/pierrec/lz4/v4"

	"github.com/flintfs/flintfs/internal/logger"
	"github.com/flintfs/flintfs/pkg/vfs"
)

// Copier imports host trees into a volume and exports them back.
type Copier struct {
	fs vfs.FileSystem

	// compress enables LZ4 block compression of imported files
	compress bool

	// compressMin is the smallest file worth compressing
	compressMin int
}

// Option configures a Copier.
type Option func(*Copier)

// WithLZ4 stores imported files LZ4-compressed when that actually
// shrinks them. Files below minSize bytes are stored as-is.
func WithLZ4(minSize int) Option {
	return func(c *Copier) {
		c.compress = true
		c.compressMin = minSize
	}
}

// New creates a Copier over a mounted filesystem.
func New(fs vfs.FileSystem, opts ...Option) *Copier {
	c := &Copier{fs: fs}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Import copies the host directory tree rooted at hostDir into the
// volume under volDir, creating volume directories as needed.
func (c *Copier) Import(hostDir, volDir string) error {
	entries, err := os.ReadDir(hostDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", hostDir, err)
	}

	// The root always exists; only subdirectories need creating.
	if volDir != "" && volDir != "/" {
		if err := c.fs.Mkdir(volDir); err != nil && !vfs.IsCode(err, vfs.ErrExists) {
			return err
		}
	}

	for _, entry := range entries {
		hostPath := filepath.Join(hostDir, entry.Name())
		volPath := path.Join(volDir, entry.Name())
		if entry.IsDir() {
			if err := c.Import(hostPath, volPath); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			logger.Debug("skipping %s: not a regular file", hostPath)
			continue
		}
		if err := c.importFile(hostPath, volPath); err != nil {
			return err
		}
	}
	return nil
}

func (c *Copier) importFile(hostPath, volPath string) error {
	content, err := os.ReadFile(hostPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", hostPath, err)
	}

	var comp vfs.Compression
	if c.compress && len(content) >= c.compressMin {
		if packed, ok := compressLZ4(content); ok {
			comp = vfs.Compression{
				Type:         vfs.CompressionLZ4,
				OriginalSize: uint32(len(content)),
			}
			content = packed
		}
	}

	h, err := c.fs.Open(volPath, vfs.OpenWrite|vfs.OpenCreate|vfs.OpenTruncate)
	if err != nil {
		return err
	}
	defer c.fs.Close(h)

	if _, err := c.fs.Write(h, content); err != nil {
		return err
	}
	if comp.Type != vfs.CompressionNone {
		if err := c.fs.FSetXAttr(h, vfs.TagCompression, vfs.EncodeCompression(comp)); err != nil {
			return err
		}
	}

	if info, err := os.Stat(hostPath); err == nil {
		mtime := vfs.TimeStamp(info.ModTime().Unix())
		if err := c.fs.FSetXAttr(h, vfs.TagModifiedTime, vfs.EncodeTime(mtime)); err != nil {
			return err
		}
	}

	logger.Debug("imported %s (%d bytes)", volPath, len(content))
	return nil
}

// Export copies the volume tree rooted at volDir into hostDir on the
// host, expanding compressed content.
func (c *Copier) Export(volDir, hostDir string) error {
	if err := os.MkdirAll(hostDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", hostDir, err)
	}

	dir, err := c.fs.OpenDir(volDir)
	if err != nil {
		return err
	}
	defer dir.Close()

	for {
		var st vfs.Stat
		if err := dir.Read(&st); err != nil {
			if vfs.IsCode(err, vfs.ErrNoMoreFiles) {
				return nil
			}
			return err
		}
		volPath := path.Join(volDir, st.Name)
		hostPath := filepath.Join(hostDir, st.Name)
		if st.IsDir() {
			if err := c.Export(volPath, hostPath); err != nil {
				return err
			}
			continue
		}
		if err := c.exportFile(volPath, hostPath, &st); err != nil {
			return err
		}
	}
}

func (c *Copier) exportFile(volPath, hostPath string, st *vfs.Stat) error {
	h, err := c.fs.Open(volPath, vfs.OpenRead)
	if err != nil {
		return err
	}
	defer c.fs.Close(h)

	content, err := readAll(c.fs, h)
	if err != nil {
		return err
	}

	if st.Compression.Type != vfs.CompressionNone {
		content, err = expand(content, st.Compression)
		if err != nil {
			return fmt.Errorf("expanding %s: %w", volPath, err)
		}
	}

	if err := os.WriteFile(hostPath, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", hostPath, err)
	}
	if st.MTime != 0 {
		mtime := st.MTime.Time()
		if err := os.Chtimes(hostPath, mtime, mtime); err != nil {
			logger.Warn("preserving mtime of %s: %v", hostPath, err)
		}
	}

	logger.Debug("exported %s (%d bytes)", hostPath, len(content))
	return nil
}

// readAll drains an open file through the handle API.
func readAll(fs vfs.FileSystem, h vfs.FileHandle) ([]byte, error) {
	var content []byte
	buf := make([]byte, 4096)
	for {
		n, err := fs.Read(h, buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return content, nil
		}
		content = append(content, buf[:n]...)
	}
}

// compressLZ4 block-compresses content, reporting false when the
// result would not be smaller.
func compressLZ4(content []byte) ([]byte, bool) {
	var compressor lz4.Compressor
	dst := make([]byte, lz4.CompressBlockBound(len(content)))
	n, err := compressor.CompressBlock(content, dst)
	if err != nil || n == 0 || n >= len(content) {
		return nil, false
	}
	return dst[:n], true
}

// expand reverses the stored compression.
func expand(content []byte, comp vfs.Compression) ([]byte, error) {
	switch comp.Type {
	case vfs.CompressionLZ4:
		dst := make([]byte, comp.OriginalSize)
		n, err := lz4.UncompressBlock(content, dst)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	default:
		return nil, fmt.Errorf("unsupported compression type %d", comp.Type)
	}
}
