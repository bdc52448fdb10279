// Package store provides the local persisted key/value store used for the
// cached credential, the calendar catalog cache, sync metadata, and user
// settings. It is a thin JSON layer over BadgerDB.
package store
