// Package store persists synced media records and pending offline user
// actions in SQLite. Records are keyed per server; the latest write wins
// and no cross-key transactions are offered. The data directory is
// flock-guarded so only one process owns a store at a time.
package store
