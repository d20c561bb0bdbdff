// Package ffmpeg builds and executes the ffmpeg invocations the pipeline
// needs: standalone track synthesis with an explicit pan filter, and the
// stream-copy remux that appends synthesized tracks to a container.
package ffmpeg
