package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateDedupe(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		return errors.New("paths.database_path must be set")
	}
	if strings.TrimSpace(c.Paths.QuarantineDir) == "" {
		return errors.New("paths.quarantine_dir must be set")
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.WorkerCount < 0 {
		return errors.New("scan.worker_count must not be negative")
	}
	return nil
}

func (c *Config) validateDedupe() error {
	if c.Dedupe.FuzzyThreshold < 0 || c.Dedupe.FuzzyThreshold > 1 {
		return errors.New("dedupe.fuzzy_threshold must be between 0 and 1")
	}
	if c.Dedupe.SizeTolerance < 0 || c.Dedupe.SizeTolerance > 1 {
		return errors.New("dedupe.size_tolerance must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
