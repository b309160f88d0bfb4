// Package integrity isolates damaged or suspicious files into the
// quarantine area and restores them on request, keeping the catalog in
// sync and notifying subscribers about incidents.
package integrity
