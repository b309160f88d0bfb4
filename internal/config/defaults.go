package config

const (
	defaultLibraryDir     = "~/roms"
	defaultDatsDir        = "~/.local/share/romkeeper/dats"
	defaultQuarantineDir  = "~/roms/_QUARANTINE"
	defaultLogDir         = "~/.local/share/romkeeper/logs"
	defaultDatabasePath   = "~/.local/share/romkeeper/catalog.db"
	defaultLogFormat      = "auto"
	defaultLogLevel       = "info"
	defaultFuzzyThreshold = 0.85
	defaultSizeTolerance  = 0.10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir:    defaultLibraryDir,
			DatsDir:       defaultDatsDir,
			QuarantineDir: defaultQuarantineDir,
			LogDir:        defaultLogDir,
			DatabasePath:  defaultDatabasePath,
		},
		Scan: Scan{
			ExcludePrefixes: []string{".", "_"},
		},
		Dedupe: Dedupe{
			FuzzyThreshold: defaultFuzzyThreshold,
			SizeTolerance:  defaultSizeTolerance,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
