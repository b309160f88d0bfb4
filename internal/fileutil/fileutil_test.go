package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"romkeeper/internal/fileutil"
	"romkeeper/internal/testsupport"
)

func TestMoveFileCreatesParents(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src.bin")
	dst := filepath.Join(base, "deep", "nested", "dst.bin")
	testsupport.WriteBytes(t, src, []byte("payload"))

	if err := fileutil.MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source still exists after move")
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read moved file: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("content = %q", data)
	}
}

func TestNextAvailablePath(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "game.bin")

	got, err := fileutil.NextAvailablePath(target)
	if err != nil {
		t.Fatalf("NextAvailablePath: %v", err)
	}
	if got != target {
		t.Fatalf("expected unoccupied path returned as-is, got %q", got)
	}

	testsupport.WriteBytes(t, target, []byte("x"))
	testsupport.WriteBytes(t, filepath.Join(base, "game (1).bin"), []byte("x"))

	got, err = fileutil.NextAvailablePath(target)
	if err != nil {
		t.Fatalf("NextAvailablePath: %v", err)
	}
	if got != filepath.Join(base, "game (2).bin") {
		t.Fatalf("got %q", got)
	}
}

func TestCopyFile(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "a.bin")
	dst := filepath.Join(base, "copy", "b.bin")
	testsupport.WriteBytes(t, src, []byte("abc"))

	if err := fileutil.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "abc" {
		t.Fatalf("copy mismatch: %q %v", data, err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatal("source should remain after copy")
	}
}
