package quality_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"romkeeper/internal/catalog"
	"romkeeper/internal/quality"
	"romkeeper/internal/testsupport"
)

func entryFor(path, system string, status catalog.Status) *catalog.Entry {
	return &catalog.Entry{
		Path:    path,
		System:  system,
		ModTime: time.Now().UTC(),
		Status:  status,
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	analyzer := quality.NewAnalyzer(store, cfg, nil)

	report := analyzer.Analyze(entryFor(filepath.Join(t.TempDir(), "gone.sfc"), "snes", catalog.StatusUnknown))
	if report.Score != 0 {
		t.Fatalf("score = %d, want 0", report.Score)
	}
	if report.Level != quality.LevelCorrupt {
		t.Fatalf("level = %s, want CORRUPT", report.Level)
	}
	if len(report.CriticalIssues()) == 0 {
		t.Fatal("expected a critical issue")
	}
}

func TestAnalyzeEmptyFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	analyzer := quality.NewAnalyzer(store, cfg, nil)

	path := filepath.Join(t.TempDir(), "empty.sfc")
	testsupport.WriteBytes(t, path, nil)

	report := analyzer.Analyze(entryFor(path, "snes", catalog.StatusUnknown))
	if report.Score != 0 || report.Level != quality.LevelCorrupt {
		t.Fatalf("score = %d level = %s, want 0/CORRUPT", report.Score, report.Level)
	}
}

func TestAnalyzeAllZeroContentIsCorrupt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	analyzer := quality.NewAnalyzer(store, cfg, nil)

	path := filepath.Join(t.TempDir(), "zeros.sfc")
	testsupport.WriteBytes(t, path, make([]byte, 2048))

	report := analyzer.Analyze(entryFor(path, "snes", catalog.StatusUnknown))
	if report.Level != quality.LevelCorrupt {
		t.Fatalf("level = %s, want CORRUPT", report.Level)
	}
}

func TestAnalyzeHealthyFileLevels(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	analyzer := quality.NewAnalyzer(store, cfg, nil)

	path := filepath.Join(t.TempDir(), "good.sfc")
	testsupport.WriteFile(t, path, 4096)

	verified := analyzer.Analyze(entryFor(path, "snes", catalog.StatusVerified))
	if verified.Level != quality.LevelPerfect {
		t.Fatalf("verified level = %s, want PERFECT", verified.Level)
	}
	if !verified.DATVerified {
		t.Fatal("expected DATVerified")
	}

	unverified := analyzer.Analyze(entryFor(path, "snes", catalog.StatusUnknown))
	if unverified.Level != quality.LevelGood {
		t.Fatalf("unverified level = %s, want GOOD", unverified.Level)
	}
}

func TestScoreStaysWithinBounds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	analyzer := quality.NewAnalyzer(store, cfg, nil)

	// Tiny non-zero file on a system with a header checker stacks
	// several penalties.
	path := filepath.Join(t.TempDir(), "tiny.gba")
	testsupport.WriteFile(t, path, 10)

	report := analyzer.Analyze(entryFor(path, "gba", catalog.StatusVerified))
	if report.Score < 0 || report.Score > 100 {
		t.Fatalf("score out of bounds: %d", report.Score)
	}
	if report.Level != quality.LevelCorrupt {
		t.Fatalf("level = %s, want CORRUPT for truncated header", report.Level)
	}
}

func TestAnalyzeLibraryAndStatistics(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	analyzer := quality.NewAnalyzer(store, cfg, nil)
	ctx := context.Background()

	base := t.TempDir()
	good := filepath.Join(base, "good.sfc")
	testsupport.WriteFile(t, good, 4096)
	testsupport.SeedEntry(t, store, good, "snes", 4096)

	missing := filepath.Join(base, "missing.sfc")
	testsupport.SeedEntry(t, store, missing, "snes", 4096)

	results, err := analyzer.AnalyzeLibrary(ctx, "snes")
	if err != nil {
		t.Fatalf("AnalyzeLibrary: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(results))
	}

	stats, err := analyzer.Statistics(ctx, "")
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.Total != 2 || stats.Playable != 1 || stats.Damaged != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.ByLevel[quality.LevelCorrupt] != 1 {
		t.Fatalf("expected one corrupt report: %+v", stats.ByLevel)
	}
}

func TestZeroContentIssueReportedBeforeSizeIssue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	analyzer := quality.NewAnalyzer(store, cfg, nil)

	// 512 null bytes trips both the null-content check and the size
	// floor; the null-content issue must come first.
	path := filepath.Join(t.TempDir(), "hollow.sfc")
	testsupport.WriteBytes(t, path, make([]byte, 512))

	report := analyzer.Analyze(entryFor(path, "snes", catalog.StatusUnknown))
	if len(report.Issues) != 2 {
		t.Fatalf("issues = %d, want 2: %+v", len(report.Issues), report.Issues)
	}
	if report.Issues[0].Kind != quality.IssueZeroBytes {
		t.Errorf("first issue = %s, want %s", report.Issues[0].Kind, quality.IssueZeroBytes)
	}
	if report.Issues[1].Kind != quality.IssueSuspiciousSize {
		t.Errorf("second issue = %s, want %s", report.Issues[1].Kind, quality.IssueSuspiciousSize)
	}
	if report.Level != quality.LevelCorrupt {
		t.Errorf("level = %s, want CORRUPT", report.Level)
	}
}
