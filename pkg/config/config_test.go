package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flintfs/flintfs/pkg/flint"
	"github.com/flintfs/flintfs/pkg/partition"
)

// TestLoadDefaults verifies loading with no file and no environment
// produces a valid default configuration.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, DefaultPartitionType, cfg.Partition.Type)
	assert.Equal(t, uint32(DefaultPartitionSize), cfg.Partition.Size)
	assert.Equal(t, DefaultCompression, cfg.Copier.Compression)
}

// TestLoadFromFile verifies file values override defaults.
func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
partition:
  type: memory
  size: 65536
copier:
  compression: lz4
  compress_min: 128
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "levels normalize to uppercase")
	assert.Equal(t, "memory", cfg.Partition.Type)
	assert.Equal(t, uint32(65536), cfg.Partition.Size)
	assert.Equal(t, "lz4", cfg.Copier.Compression)
	assert.Equal(t, 128, cfg.Copier.CompressMin)
}

// TestLoadRejectsInvalid verifies validation failures surface.
func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unknown partition type",
			content: `
partition:
  type: floppy
`,
		},
		{
			name: "unknown log level",
			content: `
logging:
  level: CHATTY
`,
		},
		{
			name: "size not block aligned",
			content: `
partition:
  type: memory
  size: 5000
`,
		},
		{
			name: "size below minimum",
			content: `
partition:
  type: memory
  size: 4096
`,
		},
		{
			name: "unknown compression",
			content: `
copier:
  compression: zstd
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

// TestCreatePartitionMemory verifies the memory factory path.
func TestCreatePartitionMemory(t *testing.T) {
	part, err := CreatePartition(context.Background(), &PartitionConfig{
		Type: "memory",
		Size: 16 * flint.BlockSize,
	})
	require.NoError(t, err)

	assert.Equal(t, uint32(16*flint.BlockSize), part.Size())
	assert.Equal(t, partition.SubTypeFlintFS, part.SubType())
}

// TestCreatePartitionFile verifies the file factory creates a missing
// image and reopens an existing one.
func TestCreatePartitionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")
	cfg := &PartitionConfig{
		Type: "file",
		Size: 16 * flint.BlockSize,
		File: map[string]any{"path": path},
	}

	part, err := CreatePartition(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, uint32(16*flint.BlockSize), part.Size())
	require.NoError(t, part.(interface{ Close() error }).Close())

	// Second call opens the image it just created.
	part, err = CreatePartition(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, uint32(16*flint.BlockSize), part.Size())
	require.NoError(t, part.(interface{ Close() error }).Close())
}

// TestCreatePartitionValidation verifies factory option validation.
func TestCreatePartitionValidation(t *testing.T) {
	ctx := context.Background()

	_, err := CreatePartition(ctx, &PartitionConfig{Type: "file", Size: 8192})
	assert.Error(t, err, "file partition without path")

	_, err = CreatePartition(ctx, &PartitionConfig{Type: "badger", Size: 8192})
	assert.Error(t, err, "badger partition without path")

	_, err = CreatePartition(ctx, &PartitionConfig{Type: "s3", Size: 8192})
	assert.Error(t, err, "s3 partition without bucket")

	_, err = CreatePartition(ctx, &PartitionConfig{Type: "tape", Size: 8192})
	assert.Error(t, err, "unknown type")
}

// TestCreatePartitionBadgerInMemory verifies the badger factory path
// without touching disk.
func TestCreatePartitionBadgerInMemory(t *testing.T) {
	part, err := CreatePartition(context.Background(), &PartitionConfig{
		Type:   "badger",
		Size:   16 * flint.BlockSize,
		Badger: map[string]any{"in_memory": true},
	})
	require.NoError(t, err)
	defer part.(interface{ Close() error }).Close()

	assert.Equal(t, partition.SubTypeFlintFS, part.SubType())
}
