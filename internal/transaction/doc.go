// Package transaction implements the crash-safe per-file pipeline: backup,
// track synthesis, remux to a staged path, verification, and an atomic
// rename commit. The original file is never modified before the commit, and
// every failure path removes all artifacts the job created.
package transaction
