package dat_test

import (
	"context"
	"path/filepath"
	"testing"

	"romkeeper/internal/catalog"
	"romkeeper/internal/dat"
	"romkeeper/internal/testsupport"
)

func TestComputeHashesFastAndDeep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abc.bin")
	testsupport.WriteBytes(t, path, []byte("abc"))

	fast, err := dat.ComputeHashes(context.Background(), path, false)
	if err != nil {
		t.Fatalf("ComputeHashes fast: %v", err)
	}
	if fast.Size != 3 {
		t.Fatalf("size = %d", fast.Size)
	}
	if fast.CRC32 != "352441c2" {
		t.Fatalf("crc32 = %q", fast.CRC32)
	}
	if fast.SHA1 != "a9993e364706816aba3e25717850c26c9cd0d89d" {
		t.Fatalf("sha1 = %q", fast.SHA1)
	}
	if fast.MD5 != "" || fast.SHA256 != "" {
		t.Fatalf("fast pass computed deep hashes: %+v", fast)
	}

	deep, err := dat.ComputeHashes(context.Background(), path, true)
	if err != nil {
		t.Fatalf("ComputeHashes deep: %v", err)
	}
	if deep.MD5 != "900150983cd24fb0d6963f7d28e17f72" {
		t.Fatalf("md5 = %q", deep.MD5)
	}
	if deep.SHA256 != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Fatalf("sha256 = %q", deep.SHA256)
	}
}

func TestComputeHashesCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.bin")
	testsupport.WriteFile(t, path, 64)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := dat.ComputeHashes(ctx, path, false); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestClassifyVerified(t *testing.T) {
	idx := dat.NewIndex()
	idx.Add(&dat.RomInfo{
		GameName: "Chrono Trigger (USA)",
		CRC:      "2d206bf7",
		SHA1:     "aaaa",
		DATName:  "Nintendo - SNES",
	})

	verdict := dat.Classify(idx, dat.Hashes{CRC32: "2d206bf7", SHA1: "AAAA"})
	if verdict.Status != catalog.StatusVerified {
		t.Fatalf("status = %s", verdict.Status)
	}
	if verdict.MatchName != "Chrono Trigger (USA)" || verdict.DATName != "Nintendo - SNES" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestClassifyMismatchOnStrongerHashDisagreement(t *testing.T) {
	idx := dat.NewIndex()
	idx.Add(&dat.RomInfo{
		GameName: "Ridge Racer (USA)",
		CRC:      "deadbeef",
		SHA1:     "1111",
	})

	// crc32 hits the record but the computed sha1 contradicts it.
	verdict := dat.Classify(idx, dat.Hashes{CRC32: "deadbeef", SHA1: "2222"})
	if verdict.Status != catalog.StatusMismatch {
		t.Fatalf("status = %s, want MISMATCH", verdict.Status)
	}
	if verdict.MatchName != "Ridge Racer (USA) (Hash Mismatch)" {
		t.Fatalf("match name = %q", verdict.MatchName)
	}
}

func TestClassifyUnknown(t *testing.T) {
	idx := dat.NewIndex()
	idx.Add(&dat.RomInfo{GameName: "Something", CRC: "11111111", SHA1: "aaaa"})

	verdict := dat.Classify(idx, dat.Hashes{CRC32: "99999999", SHA1: "ffff"})
	if verdict.Status != catalog.StatusUnknown {
		t.Fatalf("status = %s, want UNKNOWN", verdict.Status)
	}
}

func TestFindForSystemPrefersLexicallyGreatest(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "no-intro", "Nintendo - Game Boy Advance (20230101).dat")
	newer := filepath.Join(root, "no-intro", "Nintendo - Game Boy Advance (20240601).dat")
	other := filepath.Join(root, "redump", "Sony - PlayStation 2 (20240101).dat")
	testsupport.WriteBytes(t, old, []byte(""))
	testsupport.WriteBytes(t, newer, []byte(""))
	testsupport.WriteBytes(t, other, []byte(""))

	found := dat.FindForSystem(root, "gba")
	if found != newer {
		t.Fatalf("FindForSystem = %q, want %q", found, newer)
	}

	if got := dat.FindForSystem(root, "amiga"); got != "" {
		t.Fatalf("expected no match for unmapped system, got %q", got)
	}
	if got := dat.FindForSystem(root, "nes"); got != "" {
		t.Fatalf("expected no candidate for nes, got %q", got)
	}
}

func TestLoadAllMergesEverything(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteBytes(t, filepath.Join(root, "a.dat"), []byte(clrSample))
	testsupport.WriteBytes(t, filepath.Join(root, "sub", "b.xml"), []byte(xmlSample))
	testsupport.WriteBytes(t, filepath.Join(root, "notes.txt"), []byte("ignore me"))

	master, loaded := dat.LoadAll(root)
	if loaded != 2 {
		t.Fatalf("loaded = %d, want 2", loaded)
	}
	if len(master.Lookup(dat.Hashes{CRC32: "11a9c915"})) != 1 {
		t.Fatal("clrmamepro record missing from master index")
	}
	if len(master.Lookup(dat.Hashes{CRC32: "a864b2e6"})) != 1 {
		t.Fatal("xml record missing from master index")
	}
}
