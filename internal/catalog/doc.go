// Package catalog caches the account's calendar groups and calendars
// locally so listings survive provider outages, and exposes the remote
// CRUD operations for managing them.
package catalog
