package integrity_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"romkeeper/internal/catalog"
	"romkeeper/internal/integrity"
	"romkeeper/internal/testsupport"
)

func TestQuarantinePreservesMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := integrity.NewManager(store, cfg, nil)
	ctx := context.Background()

	src := filepath.Join(cfg.Paths.LibraryDir, "snes", "broken.sfc")
	testsupport.WriteFile(t, src, 2048)

	err := store.Upsert(ctx, &catalog.Entry{
		Path:    src,
		System:  "snes",
		Size:    2048,
		ModTime: time.Now().UTC(),
		SHA1:    "abcd",
		Status:  catalog.StatusCorrupt,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	dest, err := manager.Quarantine(ctx, src, "snes", "corrupt header", "boot logo missing")
	if err != nil {
		t.Fatalf("Quarantine: %v", err)
	}

	if !strings.HasPrefix(dest, filepath.Join(cfg.Paths.QuarantineDir, "snes")) {
		t.Fatalf("quarantined outside system dir: %s", dest)
	}
	if _, statErr := os.Stat(src); !os.IsNotExist(statErr) {
		t.Fatal("source still present after quarantine")
	}
	if _, statErr := os.Stat(dest); statErr != nil {
		t.Fatalf("quarantined file missing: %v", statErr)
	}

	entry, err := store.Get(ctx, dest)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry == nil {
		t.Fatal("catalog entry not rebound to quarantine path")
	}
	if entry.Status != catalog.StatusQuarantined {
		t.Fatalf("status = %s, want QUARANTINED", entry.Status)
	}
	if entry.SHA1 != "abcd" {
		t.Fatal("hashes lost during quarantine")
	}

	old, _ := store.Get(ctx, src)
	if old != nil {
		t.Fatal("old path still cataloged")
	}

	actions, err := store.ActionsForPath(ctx, dest)
	if err != nil {
		t.Fatalf("ActionsForPath: %v", err)
	}
	if len(actions) != 1 || actions[0].Kind != catalog.ActionQuarantine {
		t.Fatalf("unexpected audit trail: %+v", actions)
	}
}

func TestQuarantineCollisionSafe(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := integrity.NewManager(store, cfg, nil)
	ctx := context.Background()

	first := filepath.Join(cfg.Paths.LibraryDir, "a", "game.sfc")
	second := filepath.Join(cfg.Paths.LibraryDir, "b", "game.sfc")
	testsupport.WriteFile(t, first, 100)
	testsupport.WriteFile(t, second, 100)

	destA, err := manager.Quarantine(ctx, first, "snes", "corrupt", "x")
	if err != nil {
		t.Fatalf("Quarantine first: %v", err)
	}
	destB, err := manager.Quarantine(ctx, second, "snes", "corrupt", "x")
	if err != nil {
		t.Fatalf("Quarantine second: %v", err)
	}
	if destA == destB {
		t.Fatal("colliding quarantine paths")
	}
	for _, dest := range []string{destA, destB} {
		if _, statErr := os.Stat(dest); statErr != nil {
			t.Fatalf("quarantined file missing: %v", statErr)
		}
	}
}

func TestQuarantineMissingFileFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := integrity.NewManager(store, cfg, nil)

	if _, err := manager.Quarantine(context.Background(), "/nope.bin", "snes", "corrupt", "x"); err == nil {
		t.Fatal("expected error quarantining missing file")
	}
}

func TestRestoreResetsStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := integrity.NewManager(store, cfg, nil)
	ctx := context.Background()

	src := filepath.Join(cfg.Paths.LibraryDir, "snes", "game.sfc")
	testsupport.WriteFile(t, src, 100)
	testsupport.SeedEntry(t, store, src, "snes", 100)

	quarantined, err := manager.Quarantine(ctx, src, "snes", "corrupt", "x")
	if err != nil {
		t.Fatalf("Quarantine: %v", err)
	}

	targetDir := filepath.Join(cfg.Paths.LibraryDir, "snes")
	restored, err := manager.Restore(ctx, quarantined, targetDir)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	entry, err := store.Get(ctx, restored)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry == nil || entry.Status != catalog.StatusUnknown {
		t.Fatalf("expected restored entry with UNKNOWN status, got %+v", entry)
	}
	if _, statErr := os.Stat(restored); statErr != nil {
		t.Fatalf("restored file missing: %v", statErr)
	}

	remaining, err := manager.ListQuarantined(ctx)
	if err != nil {
		t.Fatalf("ListQuarantined: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected empty quarantine, got %d entries", len(remaining))
	}
}

func TestSubscribersReceiveEventsAndPanicsAreContained(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := integrity.NewManager(store, cfg, nil)
	ctx := context.Background()

	var received []integrity.Event
	manager.Subscribe(func(integrity.Event) {
		panic("subscriber bug")
	})
	manager.Subscribe(func(e integrity.Event) {
		received = append(received, e)
	})

	src := filepath.Join(cfg.Paths.LibraryDir, "snes", "bad.sfc")
	testsupport.WriteFile(t, src, 100)
	testsupport.SeedEntry(t, store, src, "snes", 100)

	if _, err := manager.Quarantine(ctx, src, "snes", "corrupt header", "details"); err != nil {
		t.Fatalf("Quarantine: %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("expected 1 event despite panicking subscriber, got %d", len(received))
	}
	if received[0].Issue != integrity.IssueCorruption {
		t.Fatalf("issue = %s", received[0].Issue)
	}
	if received[0].System != "snes" {
		t.Fatalf("system = %s", received[0].System)
	}
}
