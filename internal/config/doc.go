// Package config loads and saves the YAML application configuration:
// provider endpoints, OAuth client registration, fetch-window tuning,
// and the local data directory.
package config
