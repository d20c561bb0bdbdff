// Package notifications sends optional ntfy push notifications for run
// lifecycle events. An empty topic disables the service entirely.
package notifications
