// Package instrumentation provides OpenTelemetry metrics for provider API
// calls and token refreshes, exported through a Prometheus scrape endpoint.
//
// Collection is opt-in: unless a Provider is created with Enabled set, all
// recorders are no-ops and impose no overhead on the calling code.
package instrumentation
