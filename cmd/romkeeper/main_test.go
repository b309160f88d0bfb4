package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	want := []string{
		"scan", "reconcile", "verify", "organize", "dedupe",
		"quality", "quarantine", "restore", "status", "actions", "config",
	}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	root := newRootCommand()
	root.SetArgs([]string{"config", "init", "--path", target})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)

	if err := root.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Errorf("sample config missing [paths] section:\n%s", data)
	}

	// A second init without --overwrite must refuse to clobber.
	root = newRootCommand()
	root.SetArgs([]string{"config", "init", "--path", target})
	root.SetOut(&out)
	root.SetErr(&out)
	if err := root.Execute(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestShouldSkipConfig(t *testing.T) {
	root := newRootCommand()
	for _, cmd := range root.Commands() {
		if cmd.Name() != "config" {
			continue
		}
		for _, sub := range cmd.Commands() {
			if !shouldSkipConfig(sub) {
				t.Errorf("config %s should skip config loading", sub.Name())
			}
		}
	}
}
