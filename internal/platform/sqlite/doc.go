// Package sqlite provides a file-backed implementation of store.ReviewItemStore
// on the pure Go modernc.org/sqlite driver, for single-node deployments and
// local development. Timestamps are stored as fixed-width UTC text.
package sqlite
