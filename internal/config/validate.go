package config

import (
	"errors"
	"fmt"
	"strings"
)

var validCodecs = map[string]struct{}{
	"ac3":  {},
	"eac3": {},
	"aac":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSynthesis(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.StagingDir == c.Paths.LibraryDir {
		return errors.New("paths.staging_dir must differ from paths.library_dir")
	}
	return nil
}

func (c *Config) validateSynthesis() error {
	if _, ok := validCodecs[c.Synthesis.Codec]; !ok {
		return fmt.Errorf("synthesis.codec: unsupported codec %q", c.Synthesis.Codec)
	}
	if err := validateBitrate("synthesis.surround_bitrate", c.Synthesis.SurroundBitrate); err != nil {
		return err
	}
	return validateBitrate("synthesis.stereo_bitrate", c.Synthesis.StereoBitrate)
}

func validateBitrate(field, value string) error {
	trimmed := strings.TrimSuffix(strings.ToLower(value), "k")
	if trimmed == "" {
		return fmt.Errorf("%s must be set", field)
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return fmt.Errorf("%s: invalid bitrate %q", field, value)
		}
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Workers < 1 || c.Batch.Workers > 64 {
		return fmt.Errorf("batch.workers must be between 1 and 64, got %d", c.Batch.Workers)
	}
	if len(c.Batch.Extensions) == 0 {
		return errors.New("batch.extensions must contain at least one extension")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
