package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/flintfs/flintfs/pkg/flint"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags plus custom
// rules that tags cannot express.
//
// Note: log level normalization happens in ApplyDefaults, not here;
// validation accepts both cases.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

// validateCustomRules performs validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The volume is addressed in whole erase blocks and needs room for
	// the two superblocks.
	if cfg.Partition.Size%flint.BlockSize != 0 {
		return fmt.Errorf("partition: size %d is not a multiple of the %d-byte block size",
			cfg.Partition.Size, flint.BlockSize)
	}
	if cfg.Partition.Size < 2*flint.BlockSize {
		return fmt.Errorf("partition: size %d is below the %d-byte minimum",
			cfg.Partition.Size, 2*flint.BlockSize)
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly
// messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
