package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"romkeeper/internal/catalog"
	"romkeeper/internal/logging"
	"romkeeper/internal/testsupport"
	"romkeeper/internal/workflow"
)

const verifyDAT = `<?xml version="1.0"?>
<datafile>
  <header>
    <name>Test System</name>
    <version>1.0</version>
  </header>
  <game name="Alpha Game (USA)">
    <rom name="Alpha Game (USA).gba" size="3" crc="352441c2" md5="900150983cd24fb0d6963f7d28e17f72" sha1="a9993e364706816aba3e25717850c26c9cd0d89d"/>
  </game>
</datafile>
`

func newTestRunner(t *testing.T) (*workflow.Runner, *catalog.Store, *testRunnerPaths) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	runner := workflow.NewRunner(cfg, store, logging.NewNop())
	return runner, store, &testRunnerPaths{
		library:    cfg.Paths.LibraryDir,
		dats:       cfg.Paths.DatsDir,
		quarantine: cfg.Paths.QuarantineDir,
	}
}

type testRunnerPaths struct {
	library    string
	dats       string
	quarantine string
}

func TestScanDiscoversAndSkipsUnchanged(t *testing.T) {
	runner, store, paths := newTestRunner(t)

	testsupport.WriteFile(t, filepath.Join(paths.library, "gba", "alpha.gba"), 512)
	testsupport.WriteFile(t, filepath.Join(paths.library, "gba", "beta.gba"), 1024)
	testsupport.WriteFile(t, filepath.Join(paths.library, "loose.bin"), 64)

	token := workflow.NewToken(context.Background())
	result, err := runner.Scan(token)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Succeeded != 3 || result.Failed != 0 {
		t.Fatalf("first scan: %s", result.Summary())
	}

	entries, err := store.List(context.Background(), "gba")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 gba entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.SHA1 == "" || e.CRC32 == "" {
			t.Errorf("%s missing hashes", e.Path)
		}
		if e.Status != catalog.StatusUnknown {
			t.Errorf("%s status = %s, want UNKNOWN", e.Path, e.Status)
		}
	}

	loose, err := store.Get(context.Background(), filepath.Join(paths.library, "loose.bin"))
	if err != nil || loose == nil {
		t.Fatalf("Get loose.bin: entry=%v err=%v", loose, err)
	}
	if loose.System != "unknown" {
		t.Errorf("root-level file system = %q, want unknown", loose.System)
	}

	// A second pass over unchanged files must not rehash or rewrite.
	token = workflow.NewToken(context.Background())
	result, err = runner.Scan(token)
	if err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if result.Succeeded != 0 || result.Skipped != 3 {
		t.Fatalf("second scan: %s", result.Summary())
	}
}

func TestScanHonorsCancellation(t *testing.T) {
	runner, store, paths := newTestRunner(t)

	for _, name := range []string{"a.gba", "b.gba", "c.gba"} {
		testsupport.WriteFile(t, filepath.Join(paths.library, "gba", name), 128)
	}

	token := workflow.NewToken(context.Background())
	token.Cancel()

	result, err := runner.Scan(token)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Processed() != 0 {
		t.Fatalf("cancelled scan processed %d items", result.Processed())
	}

	entries, err := store.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("cancelled scan wrote %d entries", len(entries))
	}
}

func TestScanAbortsWhenStorageFails(t *testing.T) {
	runner, store, paths := newTestRunner(t)

	for _, name := range []string{"a.gba", "b.gba", "c.gba"} {
		testsupport.WriteFile(t, filepath.Join(paths.library, "gba", name), 128)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	result, err := runner.Scan(workflow.NewToken(context.Background()))
	if err == nil {
		t.Fatalf("scan over a dead store returned no error: %s", result.Summary())
	}
	if !errors.Is(err, workflow.ErrStorage) {
		t.Fatalf("error = %v, want ErrStorage", err)
	}
	if result.Processed() != 0 {
		t.Fatalf("storage failure was recorded per item: %s", result.Summary())
	}
}

func TestScanExcludesPrefixes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Scan.ExcludePrefixes = []string{"."}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := testsupport.MustOpenStore(t, cfg)
	runner := workflow.NewRunner(cfg, store, logging.NewNop())

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.LibraryDir, "gba", "game.gba"), 128)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.LibraryDir, "gba", ".hidden"), 128)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.LibraryDir, ".trash", "junk.bin"), 128)

	result, err := runner.Scan(workflow.NewToken(context.Background()))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Succeeded != 1 {
		t.Fatalf("scan with exclusions: %s", result.Summary())
	}
}

func TestReconcileRemovesMissingEntries(t *testing.T) {
	runner, store, paths := newTestRunner(t)

	present := filepath.Join(paths.library, "gba", "present.gba")
	testsupport.WriteFile(t, present, 128)
	testsupport.SeedEntry(t, store, present, "gba", 128)
	testsupport.SeedEntry(t, store, filepath.Join(paths.library, "gba", "gone.gba"), "gba", 128)

	result, err := runner.Reconcile(workflow.NewToken(context.Background()))
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Succeeded != 1 || result.Skipped != 1 {
		t.Fatalf("reconcile: %s", result.Summary())
	}

	entries, err := store.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != present {
		t.Fatalf("expected only the present entry, got %v", entries)
	}
}

func TestVerifyClassifiesAgainstDAT(t *testing.T) {
	runner, store, paths := newTestRunner(t)

	datPath := filepath.Join(paths.dats, "test.dat")
	testsupport.WriteBytes(t, datPath, []byte(verifyDAT))

	known := filepath.Join(paths.library, "gba", "alpha.gba")
	testsupport.WriteBytes(t, known, []byte("abc"))
	testsupport.SeedEntry(t, store, known, "gba", 3)

	unknown := filepath.Join(paths.library, "gba", "mystery.gba")
	testsupport.WriteBytes(t, unknown, []byte("definitely not in any dat"))
	testsupport.SeedEntry(t, store, unknown, "gba", 25)

	result, err := runner.Verify(workflow.NewToken(context.Background()), workflow.VerifyOptions{DATPath: datPath})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Succeeded != 2 {
		t.Fatalf("verify: %s", result.Summary())
	}

	got, err := store.Get(context.Background(), known)
	if err != nil || got == nil {
		t.Fatalf("Get known: entry=%v err=%v", got, err)
	}
	if got.Status != catalog.StatusVerified {
		t.Errorf("known status = %s, want VERIFIED", got.Status)
	}
	if got.MatchName != "Alpha Game (USA)" {
		t.Errorf("known match = %q", got.MatchName)
	}
	if got.SHA1 != "a9993e364706816aba3e25717850c26c9cd0d89d" {
		t.Errorf("known sha1 = %q", got.SHA1)
	}

	got, err = store.Get(context.Background(), unknown)
	if err != nil || got == nil {
		t.Fatalf("Get unknown: entry=%v err=%v", got, err)
	}
	if got.Status != catalog.StatusUnknown {
		t.Errorf("unknown status = %s, want UNKNOWN", got.Status)
	}

	actions, err := store.ActionsForPath(context.Background(), known)
	if err != nil {
		t.Fatalf("ActionsForPath: %v", err)
	}
	found := false
	for _, a := range actions {
		if a.Kind == catalog.ActionVerify {
			found = true
		}
	}
	if !found {
		t.Error("verify left no audit action")
	}
}

func TestVerifyReportsMissingFiles(t *testing.T) {
	runner, store, paths := newTestRunner(t)

	datPath := filepath.Join(paths.dats, "test.dat")
	testsupport.WriteBytes(t, datPath, []byte(verifyDAT))
	testsupport.SeedEntry(t, store, filepath.Join(paths.library, "gba", "ghost.gba"), "gba", 3)

	result, err := runner.Verify(workflow.NewToken(context.Background()), workflow.VerifyOptions{DATPath: datPath})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Failed != 1 || len(result.Errors) != 1 {
		t.Fatalf("verify: %s", result.Summary())
	}
}

func TestOrganizeDryRunLeavesFilesAlone(t *testing.T) {
	runner, store, paths := newTestRunner(t)

	misplaced := filepath.Join(paths.library, "dump", "alpha.gba")
	testsupport.WriteFile(t, misplaced, 128)
	testsupport.SeedEntry(t, store, misplaced, "gba", 128)

	result, err := runner.Organize(workflow.NewToken(context.Background()), nil, true)
	if err != nil {
		t.Fatalf("Organize dry run: %v", err)
	}
	if result.Succeeded != 1 {
		t.Fatalf("dry run: %s", result.Summary())
	}
	if _, err := os.Stat(misplaced); err != nil {
		t.Fatalf("dry run moved the file: %v", err)
	}
}

func TestOrganizeMovesToIdealPath(t *testing.T) {
	runner, store, paths := newTestRunner(t)

	misplaced := filepath.Join(paths.library, "dump", "alpha.gba")
	testsupport.WriteFile(t, misplaced, 128)
	entry := testsupport.SeedEntry(t, store, misplaced, "gba", 128)
	entry.MatchName = "Alpha Game (USA)"
	if err := store.Upsert(context.Background(), entry); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	result, err := runner.Organize(workflow.NewToken(context.Background()), workflow.StandardNaming{}, false)
	if err != nil {
		t.Fatalf("Organize: %v", err)
	}
	if result.Succeeded != 1 || result.Failed != 0 {
		t.Fatalf("organize: %s", result.Summary())
	}

	ideal := filepath.Join(paths.library, "gba", "alpha.gba")
	if _, err := os.Stat(ideal); err != nil {
		t.Fatalf("file not at ideal path: %v", err)
	}
	if _, err := os.Stat(misplaced); !os.IsNotExist(err) {
		t.Fatalf("old file still present: %v", err)
	}

	got, err := store.Get(context.Background(), ideal)
	if err != nil || got == nil {
		t.Fatalf("Get ideal: entry=%v err=%v", got, err)
	}
	if got.MatchName != "Alpha Game (USA)" {
		t.Errorf("metadata lost on move: %+v", got)
	}

	// Idempotent: a second pass finds everything in place.
	result, err = runner.Organize(workflow.NewToken(context.Background()), workflow.StandardNaming{}, false)
	if err != nil {
		t.Fatalf("second Organize: %v", err)
	}
	if result.Skipped != 1 || result.Succeeded != 0 {
		t.Fatalf("second organize: %s", result.Summary())
	}
}

// cancellingPolicy cancels its token while the first placement is being
// computed. The item already in flight must still finish.
type cancellingPolicy struct {
	token *workflow.Token
	calls int
}

func (p *cancellingPolicy) IdealRelativePath(entry *catalog.Entry) (string, error) {
	p.calls++
	if p.calls == 1 {
		p.token.Cancel()
	}
	return workflow.StandardNaming{}.IdealRelativePath(entry)
}

func TestOrganizeCancelMidRunLeavesLaterItemsUntouched(t *testing.T) {
	runner, store, paths := newTestRunner(t)

	names := []string{"a.gba", "b.gba", "c.gba"}
	for _, name := range names {
		path := filepath.Join(paths.library, "dump", name)
		testsupport.WriteFile(t, path, 128)
		testsupport.SeedEntry(t, store, path, "gba", 128)
	}

	token := workflow.NewToken(context.Background())
	result, err := runner.Organize(token, &cancellingPolicy{token: token}, false)
	if err != nil {
		t.Fatalf("Organize: %v", err)
	}
	if result.Processed() != 1 || result.Succeeded != 1 {
		t.Fatalf("cancelled organize: %s", result.Summary())
	}

	// The move in flight when the cancel landed ran to completion.
	if _, err := os.Stat(filepath.Join(paths.library, "gba", "a.gba")); err != nil {
		t.Fatalf("in-flight move did not complete: %v", err)
	}

	for _, name := range names[1:] {
		orig := filepath.Join(paths.library, "dump", name)
		if _, err := os.Stat(orig); err != nil {
			t.Fatalf("%s moved after cancellation: %v", name, err)
		}
		got, err := store.Get(context.Background(), orig)
		if err != nil || got == nil {
			t.Fatalf("catalog row for %s mutated: entry=%v err=%v", name, got, err)
		}
	}
}

func TestQuarantineCorrupt(t *testing.T) {
	runner, store, paths := newTestRunner(t)

	empty := filepath.Join(paths.library, "gba", "broken.gba")
	testsupport.WriteBytes(t, empty, nil)
	testsupport.SeedEntry(t, store, empty, "gba", 0)

	healthy := filepath.Join(paths.library, "unknown", "fine.bin")
	testsupport.WriteFile(t, healthy, 4096)
	testsupport.SeedEntry(t, store, healthy, "unknown", 4096)

	result, err := runner.QuarantineCorrupt(workflow.NewToken(context.Background()))
	if err != nil {
		t.Fatalf("QuarantineCorrupt: %v", err)
	}
	if result.Succeeded != 1 || result.Skipped != 1 {
		t.Fatalf("quarantine-corrupt: %s", result.Summary())
	}

	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Fatalf("corrupt file still in library: %v", err)
	}

	quarantined, err := store.ListByStatus(context.Background(), catalog.StatusQuarantined)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(quarantined) != 1 {
		t.Fatalf("expected 1 quarantined entry, got %d", len(quarantined))
	}
	if !strings.HasPrefix(quarantined[0].Path, paths.quarantine) {
		t.Errorf("quarantined path %q not under %q", quarantined[0].Path, paths.quarantine)
	}
}

func TestQuarantineCorruptTagsIsolationFailures(t *testing.T) {
	runner, store, paths := newTestRunner(t)

	broken := filepath.Join(paths.library, "gba", "broken.gba")
	testsupport.WriteBytes(t, broken, nil)
	testsupport.SeedEntry(t, store, broken, "gba", 0)

	// Replace the quarantine root with a plain file so no move can land.
	if err := os.RemoveAll(paths.quarantine); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	testsupport.WriteBytes(t, paths.quarantine, []byte("in the way"))

	result, err := runner.QuarantineCorrupt(workflow.NewToken(context.Background()))
	if err != nil {
		t.Fatalf("QuarantineCorrupt: %v", err)
	}
	if result.Failed != 1 || len(result.Errors) != 1 {
		t.Fatalf("quarantine-corrupt: %s", result.Summary())
	}
	if !strings.Contains(result.Errors[0], workflow.ErrCorrupt.Error()) {
		t.Fatalf("isolation failure not tagged corrupt: %s", result.Errors[0])
	}
}

func TestCleanupDuplicatesKeepsBestCopy(t *testing.T) {
	runner, store, paths := newTestRunner(t)

	keep := filepath.Join(paths.library, "gba", "aaaa.gba")
	dup := filepath.Join(paths.library, "gba", "zzzz.gba")
	testsupport.WriteBytes(t, keep, []byte("identical payload"))
	testsupport.WriteBytes(t, dup, []byte("identical payload"))

	if _, err := runner.Scan(workflow.NewToken(context.Background())); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	// Dry run reports without moving anything.
	result, err := runner.CleanupDuplicates(workflow.NewToken(context.Background()), "", true)
	if err != nil {
		t.Fatalf("CleanupDuplicates dry run: %v", err)
	}
	if result.Succeeded != 1 {
		t.Fatalf("dry run: %s", result.Summary())
	}
	if _, err := os.Stat(dup); err != nil {
		t.Fatalf("dry run moved the duplicate: %v", err)
	}

	result, err = runner.CleanupDuplicates(workflow.NewToken(context.Background()), "", false)
	if err != nil {
		t.Fatalf("CleanupDuplicates: %v", err)
	}
	if result.Succeeded != 1 {
		t.Fatalf("cleanup: %s", result.Summary())
	}

	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("recommended keep was moved: %v", err)
	}
	if _, err := os.Stat(dup); !os.IsNotExist(err) {
		t.Fatalf("duplicate still in library: %v", err)
	}

	got, err := store.Get(context.Background(), keep)
	if err != nil || got == nil {
		t.Fatalf("Get keep: entry=%v err=%v", got, err)
	}
	if got.Status == catalog.StatusQuarantined {
		t.Error("recommended keep was quarantined")
	}
}
