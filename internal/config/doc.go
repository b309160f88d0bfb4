// Package config loads, normalizes, and validates romkeeper configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and centralizes every knob the CLI and
// workflows need: library and quarantine locations, hashing depth, dedupe
// thresholds, and log output settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
