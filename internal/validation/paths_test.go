package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPathHandlerDefaults(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	ph := NewSecurePathHandler()

	db, err := ph.DBPath("")
	if err != nil {
		t.Fatalf("DBPath: %v", err)
	}
	if db != filepath.Join(home, ".ytsweep", "ytsweep.db") {
		t.Errorf("DBPath() = %s", db)
	}

	idx, err := ph.IndexPath("")
	if err != nil {
		t.Fatalf("IndexPath: %v", err)
	}
	if idx != filepath.Join(home, ".ytsweep", "index.bleve") {
		t.Errorf("IndexPath() = %s", idx)
	}
}

func TestPathHandlerRejectsOutsidePaths(t *testing.T) {
	ph := NewSecurePathHandler()
	if _, err := ph.DBPath("/etc/ytsweep.db"); err == nil {
		t.Error("expected DBPath outside allowed dirs to fail")
	}
	if _, err := ph.IndexPath("/var/lib/index.bleve"); err == nil {
		t.Error("expected IndexPath outside allowed dirs to fail")
	}
}

func TestExportPathCreatesParent(t *testing.T) {
	ph := NewSecurePathHandler()
	target := filepath.Join(t.TempDir(), "exports", "nested", "results.yaml")

	got, err := ph.ExportPath(target)
	if err != nil {
		t.Fatalf("ExportPath: %v", err)
	}
	if got != target {
		t.Errorf("ExportPath() = %s, want %s", got, target)
	}
	if info, err := os.Stat(filepath.Dir(target)); err != nil || !info.IsDir() {
		t.Errorf("parent directory not created: %v", err)
	}
}

func TestExportPathErrors(t *testing.T) {
	ph := NewPermissivePathHandler()
	tests := []struct {
		name     string
		path     string
		errorMsg string
	}{
		{"empty", "", "cannot be empty"},
		{"traversal", "../../out.json", "traversal"},
		{"null byte", "out\x00.json", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ph.ExportPath(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("expected error containing %q, got %q", tt.errorMsg, err)
			}
		})
	}
}
