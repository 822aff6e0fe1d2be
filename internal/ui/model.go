package ui

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/hubdash/internal/logtail"
	"github.com/five82/hubdash/internal/maker"
	"github.com/five82/hubdash/internal/prefs"
	"github.com/five82/hubdash/internal/state"
)

type viewKind int

const (
	viewDevices viewKind = iota
	viewVariables
	viewLogs
)

var viewNames = []string{"Devices", "Variables", "Logs"}

type (
	tickMsg   time.Time
	deviceMsg struct {
		id     string
		device *maker.Device
		err    error
	}
	testMsg       maker.Result
	prefsSavedMsg struct{ err error }
)

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx  context.Context
	opts Options
	keys keyMap

	theme     Theme
	themeName string
	sortBy    string

	width  int
	height int

	snapshot state.Snapshot
	current  viewKind
	cursor   int

	filter    textinput.Model
	filtering bool

	detail        *maker.Device
	detailErr     error
	detailLoading string

	viewport viewport.Model
	logLines []string

	showHelp   bool
	testing    bool
	testResult *maker.Result
}

// New builds the initial model.
func New(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "name, room or type"
	filter.CharLimit = 64

	sortBy := opts.SortBy
	if sortBy != prefs.SortByRoom {
		sortBy = prefs.SortByName
	}

	return Model{
		ctx:       ctx,
		opts:      opts,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.ThemeName),
		themeName: GetTheme(opts.ThemeName).Name,
		sortBy:    sortBy,
		filter:    filter,
		viewport:  viewport.New(0, 0),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return tickMsg(time.Now()) }
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) uiInterval() time.Duration {
	d := m.opts.PollTick
	if d <= 0 || d > defaultUIInterval {
		d = defaultUIInterval
	}
	return d
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(msg.Width-2, 0)
		m.viewport.Height = m.bodyHeight()
		m.refreshViewport()
		return m, nil

	case tickMsg:
		m.snapshot = m.opts.Store.Snapshot()
		if m.current == viewLogs {
			m.loadLogs()
		}
		m.clampCursor()
		m.refreshViewport()
		return m, tick(m.uiInterval())

	case deviceMsg:
		if msg.id != m.detailLoading {
			return m, nil
		}
		m.detailLoading = ""
		m.detail, m.detailErr = msg.device, msg.err
		m.refreshViewport()
		m.viewport.GotoTop()
		return m, nil

	case testMsg:
		res := maker.Result(msg)
		m.testing = false
		m.testResult = &res
		return m, nil

	case prefsSavedMsg:
		if msg.err != nil {
			m.opts.Logger.Warn("save prefs failed", "error", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			m.filtering = false
			m.filter.Blur()
			return m, nil
		case "esc":
			m.filtering = false
			m.filter.Blur()
			m.filter.SetValue("")
			m.clampCursor()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.cursor = 0
		return m, cmd
	}

	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Escape):
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.themeName = NextTheme(m.themeName)
		m.theme = GetTheme(m.themeName)
		m.refreshViewport()
		return m, m.savePrefs()
	case key.Matches(msg, m.keys.Sort):
		if m.sortBy == prefs.SortByName {
			m.sortBy = prefs.SortByRoom
		} else {
			m.sortBy = prefs.SortByName
		}
		return m, m.savePrefs()
	case key.Matches(msg, m.keys.Tab):
		return m.switchView((m.current + 1) % viewKind(len(viewNames))), nil
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView((m.current + viewKind(len(viewNames)) - 1) % viewKind(len(viewNames))), nil
	case key.Matches(msg, m.keys.ViewDevices):
		return m.switchView(viewDevices), nil
	case key.Matches(msg, m.keys.ViewVariables):
		return m.switchView(viewVariables), nil
	case key.Matches(msg, m.keys.ViewLogs):
		return m.switchView(viewLogs), nil
	case key.Matches(msg, m.keys.TestConn):
		if m.opts.Client == nil || m.testing {
			return m, nil
		}
		m.testing = true
		m.testResult = nil
		client, ctx := m.opts.Client, m.ctx
		return m, func() tea.Msg { return testMsg(client.TestConnection(ctx)) }
	case key.Matches(msg, m.keys.Escape):
		if m.detail != nil || m.detailErr != nil {
			m.detail, m.detailErr = nil, nil
			return m, nil
		}
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.clampCursor()
		}
		return m, nil
	}

	if m.current == viewDevices && m.detail == nil && m.detailErr == nil {
		return m.handleDeviceKey(msg)
	}
	return m.handleScrollKey(msg)
}

func (m Model) handleDeviceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	devices := m.visibleDevices()
	page := max(m.bodyHeight()-1, 1)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor--
	case key.Matches(msg, m.keys.Down):
		m.cursor++
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = len(devices) - 1
	case key.Matches(msg, m.keys.PageUp):
		m.cursor -= page
	case key.Matches(msg, m.keys.PageDown):
		m.cursor += page
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filter.Focus()
	case key.Matches(msg, m.keys.Open):
		if len(devices) == 0 || m.opts.Client == nil {
			return m, nil
		}
		m.clampCursor()
		id := string(devices[m.cursor].ID)
		m.detailLoading = id
		client, ctx := m.opts.Client, m.ctx
		return m, func() tea.Msg {
			d, err := client.Device(ctx, id)
			return deviceMsg{id: id, device: d, err: err}
		}
	}
	m.clampCursor()
	return m, nil
}

func (m Model) handleScrollKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) switchView(v viewKind) Model {
	m.current = v
	if v == viewLogs {
		m.loadLogs()
	}
	m.refreshViewport()
	if v == viewLogs {
		m.viewport.GotoBottom()
	} else {
		m.viewport.GotoTop()
	}
	return m
}

func (m Model) savePrefs() tea.Cmd {
	path := m.opts.PrefsPath
	p := prefs.Prefs{Theme: m.themeName, SortBy: m.sortBy}
	return func() tea.Msg {
		return prefsSavedMsg{err: prefs.Save(path, p)}
	}
}

func (m *Model) loadLogs() {
	if m.opts.LogPath == "" {
		m.logLines = nil
		return
	}
	lines, err := logtail.Read(m.opts.LogPath, logLineLimit)
	if err != nil {
		m.logLines = []string{"log unavailable: " + err.Error()}
		return
	}
	m.logLines = lines
}

func (m *Model) clampCursor() {
	n := len(m.visibleDevices())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) refreshViewport() {
	m.viewport.Height = m.bodyHeight()
	atBottom := m.viewport.AtBottom()
	switch {
	case m.current == viewVariables:
		m.viewport.SetContent(m.renderVariables())
	case m.current == viewLogs:
		m.viewport.SetContent(m.renderLogs())
		if atBottom {
			m.viewport.GotoBottom()
		}
	case m.detail != nil || m.detailErr != nil:
		m.viewport.SetContent(m.renderDetail())
	}
}

func (m Model) bodyHeight() int {
	// header, tabs, footer
	return max(m.height-3, 1)
}

func (m Model) visibleDevices() []maker.Device {
	return filterDevices(sortDevices(m.snapshot.Devices, m.sortBy), m.filter.Value())
}

func sortDevices(devices []maker.Device, sortBy string) []maker.Device {
	out := slices.Clone(devices)
	byName := func(a, b maker.Device) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName())),
			cmp.Compare(a.ID, b.ID),
		)
	}
	if sortBy == prefs.SortByRoom {
		slices.SortStableFunc(out, func(a, b maker.Device) int {
			// Devices without a room sort last.
			if (a.Room == "") != (b.Room == "") {
				if a.Room == "" {
					return 1
				}
				return -1
			}
			return cmp.Or(cmp.Compare(strings.ToLower(a.Room), strings.ToLower(b.Room)), byName(a, b))
		})
		return out
	}
	slices.SortStableFunc(out, byName)
	return out
}

func filterDevices(devices []maker.Device, query string) []maker.Device {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return devices
	}
	var out []maker.Device
	for _, d := range devices {
		haystack := strings.ToLower(strings.Join([]string{d.DisplayName(), d.Name, d.Room, d.Type, string(d.ID)}, " "))
		if strings.Contains(haystack, query) {
			out = append(out, d)
		}
	}
	return out
}
