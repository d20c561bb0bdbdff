package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeSynthesis()
	c.normalizeBatch()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.Ffmpeg = strings.TrimSpace(c.Tools.Ffmpeg)
	if c.Tools.Ffmpeg == "" {
		c.Tools.Ffmpeg = defaultFfmpegBinary
	}
	c.Tools.Ffprobe = strings.TrimSpace(c.Tools.Ffprobe)
	if c.Tools.Ffprobe == "" {
		c.Tools.Ffprobe = defaultFfprobeBinary
	}
}

func (c *Config) normalizeSynthesis() {
	c.Synthesis.Codec = strings.ToLower(strings.TrimSpace(c.Synthesis.Codec))
	if c.Synthesis.Codec == "" {
		c.Synthesis.Codec = defaultCodec
	}
	c.Synthesis.SurroundBitrate = strings.TrimSpace(c.Synthesis.SurroundBitrate)
	if c.Synthesis.SurroundBitrate == "" {
		c.Synthesis.SurroundBitrate = defaultSurroundBitrate
	}
	c.Synthesis.StereoBitrate = strings.TrimSpace(c.Synthesis.StereoBitrate)
	if c.Synthesis.StereoBitrate == "" {
		c.Synthesis.StereoBitrate = defaultStereoBitrate
	}
}

func (c *Config) normalizeBatch() {
	if c.Batch.Workers <= 0 {
		c.Batch.Workers = defaultWorkers
	}
	if len(c.Batch.Extensions) == 0 {
		c.Batch.Extensions = defaultExtensions()
	}
	normalized := make([]string, 0, len(c.Batch.Extensions))
	for _, ext := range c.Batch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Batch.Extensions = normalized
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
