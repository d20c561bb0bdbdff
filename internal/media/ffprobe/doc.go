// Package ffprobe wraps the ffprobe binary for media stream inspection.
//
// Two output modes are supported: the structured JSON format and the
// line-oriented compact format. Both decode into the same Result model so
// downstream code never cares which mode produced it.
package ffprobe
