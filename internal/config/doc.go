// Package config loads, normalizes, and validates downmix configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the CLI needs: library and staging directories, ffmpeg/ffprobe binary
// names, the synthesis encoding policy, and batch behavior.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extension lists, and clear validation errors.
package config
