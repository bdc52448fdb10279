// Package logging provides structured logging helpers built on log/slog.
//
// It defines canonical attribute keys used across the codebase so that log
// output stays queryable, plus sanitizers for sensitive values such as
// access tokens and email addresses.
package logging
