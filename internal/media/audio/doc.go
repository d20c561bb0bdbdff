// Package audio holds the pure decision logic of the pipeline: classifying
// a file's probed audio streams by channel count and planning which tracks
// to synthesize. Nothing in this package touches the filesystem or spawns
// processes.
package audio
