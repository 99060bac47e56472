package home

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDefaultsToUserHome(t *testing.T) {
	d, err := New("")
	if err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if !strings.HasSuffix(d.Path(), DefaultDirName) {
		t.Errorf("expected path ending in %s, got %s", DefaultDirName, d.Path())
	}
}

func TestPaths(t *testing.T) {
	d, err := New("/tmp/inkplan-test")
	if err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	if d.ConfigPath() != filepath.Join("/tmp/inkplan-test", ConfigFileName) {
		t.Errorf("unexpected config path: %s", d.ConfigPath())
	}
	if d.StorePath() != filepath.Join("/tmp/inkplan-test", DataDirName, StoreFileName) {
		t.Errorf("unexpected store path: %s", d.StorePath())
	}
	if d.ScriptPath("job1") != filepath.Join("/tmp/inkplan-test", "scripts", "job1.yaml") {
		t.Errorf("unexpected script path: %s", d.ScriptPath("job1"))
	}
}

func TestEnsureExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "inkplan-home")
	d, err := New(root)
	if err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	if d.Exists() {
		t.Fatal("directory should not exist yet")
	}
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("failed to ensure directories: %v", err)
	}
	if !d.Exists() {
		t.Fatal("directory should exist after EnsureExists")
	}

	for _, path := range []string{d.DataPath(), d.ScriptsDir()} {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory at %s: %v", path, err)
		}
	}

	if d.ConfigExists() {
		t.Error("config should not exist before being written")
	}
}
