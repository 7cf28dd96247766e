package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete FlintFS tool configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (FLINTFS_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Partition Configuration Pattern:
// Each partition backend defines its own option set. The Config struct
// carries one map section per backend and only the section matching the
// selected type is decoded, by the factory in factories.go.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Partition specifies the partition backend and its options
	Partition PartitionConfig `mapstructure:"partition"`

	// Copier controls host/volume transfer behavior
	Copier CopierConfig `mapstructure:"copier"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// PartitionConfig specifies which partition backend backs the volume.
//
// The Type field selects the backend; only the matching option section
// is used.
type PartitionConfig struct {
	// Type selects the partition backend
	// Valid values: memory, file, badger, s3
	Type string `mapstructure:"type" validate:"required,oneof=memory file badger s3"`

	// Size is the partition capacity in bytes. It must be a whole
	// number of erase blocks. Backends with persistent sizing (an
	// existing file image) may omit it.
	Size uint32 `mapstructure:"size"`

	// Memory contains memory-backend options
	Memory map[string]any `mapstructure:"memory"`

	// File contains file-image backend options
	File map[string]any `mapstructure:"file"`

	// Badger contains BadgerDB backend options
	Badger map[string]any `mapstructure:"badger"`

	// S3 contains S3 backend options
	S3 map[string]any `mapstructure:"s3"`
}

// CopierConfig controls import/export behavior.
type CopierConfig struct {
	// Compression selects how imported files are stored
	// Valid values: none, lz4
	Compression string `mapstructure:"compression" validate:"required,oneof=none lz4"`

	// CompressMin is the smallest file size worth compressing, in bytes
	CompressMin int `mapstructure:"compress_min" validate:"gte=0"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns the loaded and validated configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config
// file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the FLINTFS_ prefix with underscores.
	// Example: FLINTFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("FLINTFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing
// file is fine; defaults cover everything.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to
// the current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "flintfs")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "flintfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
