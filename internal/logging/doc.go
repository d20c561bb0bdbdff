// Package logging builds the slog loggers used across downmix.
//
// Two handler formats are supported: a human-oriented console format
// (timestamp, level, component prefix, key=value attrs) and standard JSON.
// Console output is teed to a per-run log file under the configured log
// directory.
package logging
