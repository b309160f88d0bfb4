// Package workflow runs the long operations of the library manager: scan,
// verify, organize, reconcile, and the quarantine maintenance passes. Each
// workflow takes a Token for cooperative cancellation and best-effort
// progress, processes entries independently, and folds per-item failures
// into a Result instead of aborting the batch.
package workflow
