// Package logging builds slog loggers for romkeeper with console and JSON
// output, standardized field keys, and context-derived run identifiers.
package logging
