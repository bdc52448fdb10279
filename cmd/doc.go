// Package cmd implements the command-line interface for calsync.
//
// This package provides the following commands:
//   - login / logout: Establish and discard the remote account session
//   - sync: Fetch events into the fixed local timezone
//   - event: Create, update, delete, and push events
//   - calendars: Show and manage the cached calendar catalog
//   - watch: Periodically resync until interrupted, with optional metrics
//   - version: Display version information
package cmd
