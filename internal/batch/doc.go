// Package batch walks a library tree and drives the per-file pipeline:
// probe, classify, plan, then hand off to the transaction controller.
// Files are independent; a failure in one never stops the rest of the run.
package batch
