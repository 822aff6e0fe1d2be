package ui

import "github.com/charmbracelet/lipgloss"

// Theme defines colors for the dashboard.
type Theme struct {
	Name string

	Background    string
	Surface       string
	SelectionBg   string
	SelectionText string
	Border        string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
}

// Styles contains pre-built Lipgloss styles for a theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header    lipgloss.Style
	Footer    lipgloss.Style
	Logo      lipgloss.Style
	Selected  lipgloss.Style
	TabActive lipgloss.Style
	Tab       lipgloss.Style
	Panel     lipgloss.Style
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		MutedText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		FaintText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Faint)),
		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),
		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),
		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),
		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),
		InfoText: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Footer: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Bold(true),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),
		TabActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Background)).
			Background(lipgloss.Color(t.Accent)).
			Padding(0, 1),
		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),
	}
}

var themes = map[string]Theme{
	"Midnight": midnightTheme(),
	"Daylight": daylightTheme(),
}

var themeOrder = []string{"Midnight", "Daylight"}

// GetTheme returns a theme by name, falling back to Midnight.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return midnightTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

func midnightTheme() Theme {
	// Tailwind slate/sky
	return Theme{
		Name:          "Midnight",
		Background:    "#020617",
		Surface:       "#0f172a",
		SelectionBg:   "#0284c7",
		SelectionText: "#f8fafc",
		Border:        "#334155",
		Text:          "#f1f5f9",
		Muted:         "#94a3b8",
		Faint:         "#64748b",
		Accent:        "#38bdf8",
		Success:       "#22c55e",
		Warning:       "#f59e0b",
		Danger:        "#ef4444",
		Info:          "#06b6d4",
	}
}

func daylightTheme() Theme {
	return Theme{
		Name:          "Daylight",
		Background:    "#f8fafc",
		Surface:       "#e2e8f0",
		SelectionBg:   "#bae6fd",
		SelectionText: "#0f172a",
		Border:        "#94a3b8",
		Text:          "#0f172a",
		Muted:         "#475569",
		Faint:         "#94a3b8",
		Accent:        "#0369a1",
		Success:       "#15803d",
		Warning:       "#b45309",
		Danger:        "#b91c1c",
		Info:          "#0e7490",
	}
}
