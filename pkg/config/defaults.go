package config

import (
	"strings"

	"github.com/flintfs/flintfs/pkg/flint"
)

// Default values applied by ApplyDefaults.
const (
	// DefaultLogLevel is the default logging level
	DefaultLogLevel = "INFO"

	// DefaultPartitionType is the default partition backend
	DefaultPartitionType = "file"

	// DefaultPartitionSize is the default partition capacity: 256
	// erase blocks (1 MiB)
	DefaultPartitionSize = 256 * flint.BlockSize

	// DefaultCompression is the default import compression scheme
	DefaultCompression = "none"

	// DefaultCompressMin is the default minimum size for compression
	DefaultCompressMin = 64
)

// ApplyDefaults fills in defaults for any unset configuration values.
// Log levels are normalized to uppercase here so the rest of the code
// never deals with case variants.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)

	if cfg.Partition.Type == "" {
		cfg.Partition.Type = DefaultPartitionType
	}
	if cfg.Partition.Size == 0 {
		cfg.Partition.Size = DefaultPartitionSize
	}

	if cfg.Copier.Compression == "" {
		cfg.Copier.Compression = DefaultCompression
	}
	if cfg.Copier.CompressMin == 0 {
		cfg.Copier.CompressMin = DefaultCompressMin
	}
}
