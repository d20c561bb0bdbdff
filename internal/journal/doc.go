// Package journal persists per-run outcome history in SQLite for the
// history command. The pipeline only ever writes to it; no decision reads
// it back.
package journal
