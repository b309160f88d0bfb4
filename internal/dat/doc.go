// Package dat loads reference data files (Logiqx XML and ClrMamePro
// dialects), computes streaming file hashes, and classifies files against
// the loaded reference records.
package dat
