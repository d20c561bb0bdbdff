// Package services defines the shared error taxonomy for components that
// drive external tools. Sentinel errors let callers classify failures
// without string matching.
package services
