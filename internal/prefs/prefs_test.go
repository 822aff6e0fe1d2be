package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p := Load("")
	if p.Theme != defaultTheme || p.SortBy != SortByName {
		t.Fatalf("Load = %+v, want defaults", p)
	}
}

func TestLoad_ReadsDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "hubdash")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(prefsDir, "prefs.toml"), []byte("theme = \"Daylight\"\nsort_by = \"room\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := Load("")
	if p.Theme != "Daylight" || p.SortBy != SortByRoom {
		t.Fatalf("Load = %+v, want Daylight/room", p)
	}
}

func TestSave_CreatesFileAndDirs(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "subdir", "prefs.toml")

	if err := Save(prefsFile, Prefs{Theme: "Daylight", SortBy: SortByRoom}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded := Load(prefsFile)
	if loaded.Theme != "Daylight" || loaded.SortBy != SortByRoom {
		t.Fatalf("Load after Save = %+v", loaded)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty theme", "theme = \"\"\nsort_by = \"sideways\"\n"},
		{"invalid toml", "not valid toml {{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
			if err := os.WriteFile(prefsFile, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			p := Load(prefsFile)
			if p.Theme != defaultTheme || p.SortBy != SortByName {
				t.Fatalf("Load = %+v, want defaults", p)
			}
		})
	}
}
