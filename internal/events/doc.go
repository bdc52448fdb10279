// Package events fetches and mutates calendar events against the remote
// provider. Fetched events are normalized into a fixed UTC+8 local-naive
// time format and a flat participant shape; mutations validate time
// fields before any network traffic and stay idempotent where the remote
// allows it.
package events
