package quality

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"romkeeper/internal/catalog"
	"romkeeper/internal/config"
	"romkeeper/internal/logging"
)

// defaultMinFileSize is the floor applied when the config carries no
// per-system minimum. Tiny cartridge systems are exempt.
const defaultMinFileSize = 1024

var tinySystemExempt = map[string]bool{
	"atari2600": true,
	"nes":       true,
}

// Analyzer scores files on structural integrity: generic content checks
// first, then a per-system header checker when one is registered.
type Analyzer struct {
	store    *catalog.Store
	minSizes map[string]int64
	logger   *slog.Logger
}

// NewAnalyzer builds an analyzer over the catalog.
func NewAnalyzer(store *catalog.Store, cfg *config.Config, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		store:    store,
		minSizes: cfg.Quality.MinFileSizes,
		logger:   logger.With(logging.String(logging.FieldComponent, "quality")),
	}
}

// Analyze runs all checks for one entry. The returned report always has a
// final level; analysis itself never fails.
func (a *Analyzer) Analyze(entry *catalog.Entry) *Report {
	report := newReport(entry.Path, entry.System, entry.Status == catalog.StatusVerified)

	if stop := a.checkBasics(entry, report); !stop {
		if report.DATVerified {
			report.adjust(20)
			report.addCheck("DAT verification")
		}
		if checker := checkerForSystem(entry.System); checker != nil {
			checker.Check(entry.Path, report)
		}
	}

	report.finalize()
	return report
}

// checkBasics validates existence and raw content. Returns true when the
// file is beyond further checking.
func (a *Analyzer) checkBasics(entry *catalog.Entry, report *Report) bool {
	report.addCheck("file_basics")

	info, err := os.Stat(entry.Path)
	if err != nil {
		report.addIssue(Issue{
			Kind:        IssueMissingSections,
			Severity:    SeverityCritical,
			Description: "File not found",
		})
		report.zeroScore()
		return true
	}

	size := info.Size()
	if size == 0 {
		report.addIssue(Issue{
			Kind:        IssueZeroBytes,
			Severity:    SeverityCritical,
			Description: "Empty file (0 bytes)",
		})
		report.zeroScore()
		return true
	}

	if sample, readErr := readPrefix(entry.Path, 1024); readErr == nil {
		if len(sample) > 0 && bytes.Count(sample, []byte{0}) == len(sample) {
			report.addIssue(Issue{
				Kind:        IssueZeroBytes,
				Severity:    SeverityCritical,
				Description: "File content is all null bytes",
				Location:    "first 1KB",
			})
			report.adjust(-50)
		}
	} else {
		a.logger.Warn("could not sample file",
			logging.String(logging.FieldPath, entry.Path),
			logging.Error(readErr))
	}

	if size < a.minSize(entry.System) && !tinySystemExempt[entry.System] {
		report.addIssue(Issue{
			Kind:           IssueSuspiciousSize,
			Severity:       SeverityHigh,
			Description:    fmt.Sprintf("File suspiciously small: %d bytes", size),
			Recommendation: "Check whether the file is complete",
		})
		report.adjust(-30)
	}

	return false
}

func (a *Analyzer) minSize(system string) int64 {
	if min, ok := a.minSizes[system]; ok {
		return min
	}
	return defaultMinFileSize
}

// AnalyzeLibrary runs Analyze over the catalog, optionally filtered by
// system, keyed by path.
func (a *Analyzer) AnalyzeLibrary(ctx context.Context, system string) (map[string]*Report, error) {
	entries, err := a.store.List(ctx, system)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*Report, len(entries))
	for _, entry := range entries {
		results[entry.Path] = a.Analyze(entry)
	}
	return results, nil
}

// Stats aggregates a library analysis.
type Stats struct {
	Total        int
	ByLevel      map[Level]int
	Playable     int
	Damaged      int
	AverageScore float64
	IssuesByKind map[IssueKind]int
}

// Statistics analyzes the library and rolls the reports up.
func (a *Analyzer) Statistics(ctx context.Context, system string) (Stats, error) {
	results, err := a.AnalyzeLibrary(ctx, system)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		ByLevel:      make(map[Level]int),
		IssuesByKind: make(map[IssueKind]int),
	}
	var scoreSum int
	for _, report := range results {
		stats.Total++
		stats.ByLevel[report.Level]++
		if report.IsPlayable() {
			stats.Playable++
		}
		if report.Level == LevelDamaged || report.Level == LevelCorrupt {
			stats.Damaged++
		}
		scoreSum += report.Score
		for _, issue := range report.Issues {
			stats.IssuesByKind[issue.Kind]++
		}
	}
	if stats.Total > 0 {
		stats.AverageScore = float64(scoreSum) / float64(stats.Total)
	}
	return stats, nil
}

// readPrefix reads up to n bytes from the start of a file.
func readPrefix(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := f.Read(buf)
	if read > 0 {
		return buf[:read], nil
	}
	return nil, err
}
