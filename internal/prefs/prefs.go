// Package prefs persists hubdash UI preferences in ~/.config/hubdash/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for the dashboard.
type Prefs struct {
	Theme  string `toml:"theme"`
	SortBy string `toml:"sort_by"`
}

const (
	defaultPrefsPath = "~/.config/hubdash/prefs.toml"
	defaultTheme     = "Midnight"

	SortByName = "name"
	SortByRoom = "room"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

func defaults() Prefs {
	return Prefs{Theme: defaultTheme, SortBy: SortByName}
}

// Load reads preferences from path. Missing or unreadable files yield
// defaults; preferences are never worth failing startup over.
func Load(path string) Prefs {
	resolved, err := resolvePath(path)
	if err != nil {
		return defaults()
	}

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		return defaults()
	}

	p := defaults()
	if err := toml.Unmarshal(bytes, &p); err != nil {
		return defaults()
	}

	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	switch p.SortBy {
	case SortByName, SortByRoom:
	default:
		p.SortBy = SortByName
	}
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
