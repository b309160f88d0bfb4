// Package catalog persists the library catalog in SQLite: one row per
// cataloged file keyed by absolute path, plus an append-only audit log of
// every mutating action. The store enforces a single writer per process and
// holds a file lock so only one process touches a catalog at a time.
package catalog
