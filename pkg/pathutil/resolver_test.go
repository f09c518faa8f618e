package pathutil

import (
	"path/filepath"
	"testing"
)

func TestDatabasePathDefault(t *testing.T) {
	resolver := New(Config{DataDir: "/tmp/budget"})

	want := filepath.Join("/tmp/budget", ".sync", "links.db")
	if got := resolver.GetDatabasePath(); got != want {
		t.Errorf("GetDatabasePath() = %q, expected %q", got, want)
	}
}

func TestDatabasePathOverride(t *testing.T) {
	resolver := New(Config{DataDir: "/tmp/budget", DatabasePath: "/var/lib/links.db"})

	if got := resolver.GetDatabasePath(); got != "/var/lib/links.db" {
		t.Errorf("GetDatabasePath() = %q, expected override", got)
	}
}

func TestBudgetCacheDir(t *testing.T) {
	resolver := New(Config{DataDir: "/tmp/budget"})

	got, err := resolver.GetBudgetCacheDir("budget-1")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/budget", "budget-1"); got != want {
		t.Errorf("GetBudgetCacheDir() = %q, expected %q", got, want)
	}

	if _, err := resolver.GetBudgetCacheDir(""); err == nil {
		t.Error("GetBudgetCacheDir should reject an empty budget id")
	}
}

func TestEnsureDirAndFileExists(t *testing.T) {
	dir := t.TempDir()
	resolver := New(Config{DataDir: dir})

	nested := filepath.Join(dir, "a", "b")
	if err := resolver.EnsureDir(nested); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	if !resolver.FileExists(nested) {
		t.Error("EnsureDir should create the directory")
	}
	if resolver.FileExists(filepath.Join(dir, "missing")) {
		t.Error("FileExists should be false for a missing path")
	}
}
