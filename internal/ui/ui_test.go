package ui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/hubdash/internal/logtail"
	"github.com/five82/hubdash/internal/maker"
	"github.com/five82/hubdash/internal/prefs"
	"github.com/five82/hubdash/internal/state"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleDevices() []maker.Device {
	return []maker.Device{
		{ID: "3", Label: "Porch Light", Room: "Outside", Type: "Generic Zigbee Bulb"},
		{ID: "1", Label: "kitchen motion", Room: "Kitchen", Type: "Motion Sensor"},
		{ID: "2", Name: "Attic Fan", Type: "Virtual Switch"},
	}
}

func newTestModel(t *testing.T, client *maker.Client) (Model, *state.Store) {
	t.Helper()
	store := &state.Store{}
	store.Update(&state.Poll{
		Devices:   sampleDevices(),
		Variables: map[string]any{"away": false, "setpoint": 68.5},
	}, nil)
	m := New(context.Background(), Options{
		Store:     store,
		Client:    client,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = update(t, m, m.Init()())
	return m, store
}

func configuredClient(t *testing.T, handler http.HandlerFunc) *maker.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	conn := maker.Parse(server.URL+"/api/hub/apps/4/devices?access_token=t", maker.Tuning{})
	if !conn.Valid {
		t.Fatalf("test connection invalid: %v", conn.Err())
	}
	return maker.NewClient(conn)
}

func TestSortDevices(t *testing.T) {
	byName := sortDevices(sampleDevices(), prefs.SortByName)
	var got []string
	for _, d := range byName {
		got = append(got, d.DisplayName())
	}
	if want := "Attic Fan,kitchen motion,Porch Light"; strings.Join(got, ",") != want {
		t.Fatalf("sort by name = %v, want %s", got, want)
	}

	byRoom := sortDevices(sampleDevices(), prefs.SortByRoom)
	got = got[:0]
	for _, d := range byRoom {
		got = append(got, string(d.ID))
	}
	if want := "1,3,2"; strings.Join(got, ",") != want {
		t.Fatalf("sort by room = %v, want %s (roomless last)", got, want)
	}
}

func TestSortDevices_DoesNotMutateInput(t *testing.T) {
	in := sampleDevices()
	_ = sortDevices(in, prefs.SortByName)
	if in[0].ID != "3" {
		t.Fatalf("input reordered: first = %s", in[0].ID)
	}
}

func TestFilterDevices(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"  ", 3},
		{"KITCHEN", 1},
		{"switch", 1},
		{"light", 1},
		{"2", 1},
		{"garage", 0},
	}
	for _, tc := range cases {
		if got := filterDevices(sampleDevices(), tc.query); len(got) != tc.want {
			t.Fatalf("filterDevices(%q) = %d devices, want %d", tc.query, len(got), tc.want)
		}
	}
}

func TestTruncateAndPad(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate = %q, want abc…", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Fatalf("truncate short = %q", got)
	}
	if got := truncate("abc", 0); got != "" {
		t.Fatalf("truncate zero = %q", got)
	}
	if got := padRight("ab", 4); got != "ab  " {
		t.Fatalf("padRight = %q", got)
	}
	if got := padRight("abcdef", 4); got != "abcdef" {
		t.Fatalf("padRight overflow = %q", got)
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "-"},
		{"home", "home"},
		{68.5, "68.5"},
		{float64(3), "3"},
		{true, "true"},
		{map[string]any{"a": float64(1)}, `{"a":1}`},
	}
	for _, tc := range cases {
		if got := formatValue(tc.in); got != tc.want {
			t.Fatalf("formatValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClassifyConnectionError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"timeout", &maker.RequestError{Kind: maker.KindTimeout}, "TIMEOUT"},
		{"unauthorized", &maker.RequestError{Kind: maker.KindHTTP, StatusCode: 401}, "UNAUTHORIZED"},
		{"not_found", &maker.RequestError{Kind: maker.KindHTTP, StatusCode: 404}, "NOT FOUND"},
		{"server", &maker.RequestError{Kind: maker.KindHTTP, StatusCode: 500}, "HTTP 500"},
		{"decode", &maker.RequestError{Kind: maker.KindDecode, Err: errors.New("eof")}, "BAD RESPONSE"},
		{"dns", &maker.RequestError{Kind: maker.KindTransport, Err: errors.New("dial tcp: lookup hub: no such host")}, "HOST NOT FOUND"},
		{"other", errors.New("boom"), "ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyConnectionError(tc.err); got != tc.want {
				t.Fatalf("classifyConnectionError = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNextTheme_Cycles(t *testing.T) {
	if got := NextTheme("Midnight"); got != "Daylight" {
		t.Fatalf("NextTheme(Midnight) = %q", got)
	}
	if got := NextTheme("Daylight"); got != "Midnight" {
		t.Fatalf("NextTheme(Daylight) = %q", got)
	}
	if got := NextTheme("bogus"); got != "Midnight" {
		t.Fatalf("NextTheme(bogus) = %q", got)
	}
	if got := GetTheme("bogus").Name; got != "Midnight" {
		t.Fatalf("GetTheme fallback = %q", got)
	}
}

func TestModel_TickLoadsSnapshot(t *testing.T) {
	m, store := newTestModel(t, maker.NewClient(maker.Parse("", maker.Tuning{})))
	if len(m.snapshot.Devices) != 3 {
		t.Fatalf("snapshot devices = %d, want 3", len(m.snapshot.Devices))
	}

	store.Update(&state.Poll{Devices: sampleDevices()[:1]}, nil)
	m, cmd := update(t, m, tickMsg{})
	if cmd == nil {
		t.Fatalf("tick should schedule the next tick")
	}
	if len(m.snapshot.Devices) != 1 {
		t.Fatalf("snapshot devices after tick = %d, want 1", len(m.snapshot.Devices))
	}
}

func TestModel_UnconfiguredShowsGuidance(t *testing.T) {
	m, _ := newTestModel(t, maker.NewClient(maker.Parse(maker.Placeholder, maker.Tuning{})))
	out := m.View()
	if !strings.Contains(out, "NOT CONFIGURED") {
		t.Fatalf("view missing status:\n%s", out)
	}
	if !strings.Contains(out, "Maker API is not configured") {
		t.Fatalf("view missing guidance:\n%s", out)
	}
}

func TestModel_CursorClampsToVisibleDevices(t *testing.T) {
	m, _ := newTestModel(t, configuredClient(t, func(w http.ResponseWriter, r *http.Request) {}))
	for range 5 {
		m, _ = update(t, m, runes("j"))
	}
	if m.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", m.cursor)
	}
	m, _ = update(t, m, runes("g"))
	if m.cursor != 0 {
		t.Fatalf("cursor after top = %d, want 0", m.cursor)
	}
	m, _ = update(t, m, runes("k"))
	if m.cursor != 0 {
		t.Fatalf("cursor above top = %d, want 0", m.cursor)
	}
}

func TestModel_FilterNarrowsTable(t *testing.T) {
	m, _ := newTestModel(t, configuredClient(t, func(w http.ResponseWriter, r *http.Request) {}))
	m, _ = update(t, m, runes("/"))
	if !m.filtering {
		t.Fatalf("expected filter mode")
	}
	m, _ = update(t, m, runes("fan"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.filtering {
		t.Fatalf("enter should leave filter mode")
	}
	if got := m.visibleDevices(); len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("visible devices = %+v, want attic fan only", got)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.visibleDevices(); len(got) != 3 {
		t.Fatalf("esc should clear filter, got %d devices", len(got))
	}
}

func TestModel_OpenDeviceDetail(t *testing.T) {
	client := configuredClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/devices/2") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"id":"2","name":"Attic Fan","type":"Virtual Switch",
			"attributes":[{"name":"switch","currentValue":"on","dataType":"ENUM"}]}`))
	})
	m, _ := newTestModel(t, client)

	// Attic Fan sorts first by name.
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || m.detailLoading != "2" {
		t.Fatalf("enter should fetch device 2, loading=%q", m.detailLoading)
	}
	m, _ = update(t, m, cmd())
	if m.detailErr != nil {
		t.Fatalf("detail error: %v", m.detailErr)
	}
	if m.detail == nil || m.detail.Name != "Attic Fan" {
		t.Fatalf("detail = %+v", m.detail)
	}
	if out := m.View(); !strings.Contains(out, "switch") || !strings.Contains(out, "on") {
		t.Fatalf("detail view missing attribute:\n%s", out)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.detail != nil {
		t.Fatalf("esc should close detail")
	}
}

func TestModel_StaleDeviceResponseIgnored(t *testing.T) {
	m, _ := newTestModel(t, configuredClient(t, func(w http.ResponseWriter, r *http.Request) {}))
	m.detailLoading = "1"
	m, _ = update(t, m, deviceMsg{id: "3", device: &maker.Device{ID: "3"}})
	if m.detail != nil {
		t.Fatalf("response for another device should be dropped")
	}
}

func TestModel_TestConnection(t *testing.T) {
	client := configuredClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1"},{"id":"2"}]`))
	})
	m, _ := newTestModel(t, client)

	m, cmd := update(t, m, runes("c"))
	if cmd == nil || !m.testing {
		t.Fatalf("c should start a connection test")
	}
	m, _ = update(t, m, cmd())
	if m.testing || m.testResult == nil || !m.testResult.Success {
		t.Fatalf("test result = %+v", m.testResult)
	}
	if out := m.View(); !strings.Contains(out, "Connected! Found 2 devices") {
		t.Fatalf("footer missing result:\n%s", out)
	}
}

func TestModel_ThemeAndSortPersist(t *testing.T) {
	m, _ := newTestModel(t, maker.NewClient(maker.Parse("", maker.Tuning{})))

	m, cmd := update(t, m, runes("T"))
	if m.themeName != "Daylight" {
		t.Fatalf("theme = %q, want Daylight", m.themeName)
	}
	if msg := cmd(); msg.(prefsSavedMsg).err != nil {
		t.Fatalf("save prefs: %v", msg.(prefsSavedMsg).err)
	}

	m, cmd = update(t, m, runes("s"))
	if m.sortBy != prefs.SortByRoom {
		t.Fatalf("sortBy = %q, want room", m.sortBy)
	}
	_ = cmd()

	got := prefs.Load(m.opts.PrefsPath)
	if got.Theme != "Daylight" || got.SortBy != prefs.SortByRoom {
		t.Fatalf("persisted prefs = %+v", got)
	}
}

func TestModel_ViewSwitching(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "missing.log")
	m, _ := newTestModel(t, maker.NewClient(maker.Parse("", maker.Tuning{})))
	m.opts.LogPath = logPath

	m, _ = update(t, m, runes("v"))
	if m.current != viewVariables {
		t.Fatalf("current = %d, want variables", m.current)
	}
	if out := m.View(); !strings.Contains(out, "setpoint") || !strings.Contains(out, "68.5") {
		t.Fatalf("variables view missing data:\n%s", out)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.current != viewLogs {
		t.Fatalf("tab from variables = %d, want logs", m.current)
	}
	if out := m.View(); !strings.Contains(out, "No log entries") {
		t.Fatalf("logs view:\n%s", out)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.current != viewDevices {
		t.Fatalf("tab should wrap to devices, got %d", m.current)
	}
}

func TestModel_HelpOverlay(t *testing.T) {
	m, _ := newTestModel(t, maker.NewClient(maker.Parse("", maker.Tuning{})))
	m, _ = update(t, m, runes("?"))
	if !m.showHelp {
		t.Fatalf("expected help overlay")
	}
	if out := m.View(); !strings.Contains(out, "Keyboard shortcuts") {
		t.Fatalf("help view:\n%s", out)
	}
	m, _ = update(t, m, runes("j"))
	if !m.showHelp {
		t.Fatalf("other keys should not close help")
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Fatalf("esc should close help")
	}
}

func TestStyleLogLine(t *testing.T) {
	s := GetTheme("Midnight").Styles()
	line := styleLogLine(s, logtail.ParseLine(`time=2026-01-02T10:11:12.000Z level=WARN msg="poll failed" error=timeout`))
	for _, want := range []string{"10:11:12", "WRN", "poll failed", "error=", "timeout"} {
		if !strings.Contains(line, want) {
			t.Fatalf("styled line %q missing %q", line, want)
		}
	}
	if got := styleLogLine(s, logtail.ParseLine("plain text")); !strings.Contains(got, "plain text") {
		t.Fatalf("unparsed line = %q", got)
	}
}

func TestModel_HeaderShowsHubSummary(t *testing.T) {
	m, store := newTestModel(t, configuredClient(t, func(w http.ResponseWriter, r *http.Request) {}))
	store.Update(&state.Poll{
		Devices: sampleDevices(),
		Hub:     maker.HubInfo{Name: "Home", Mode: "Night", HSMStatus: "armedHome"},
	}, nil)
	m, _ = update(t, m, tickMsg{})
	if out := m.View(); !strings.Contains(out, "Home · mode Night · hsm armedHome") {
		t.Fatalf("header missing hub summary:\n%s", out)
	}
	if got := hubSummary(maker.HubInfo{Mode: "Away"}); got != "mode Away" {
		t.Fatalf("hubSummary = %q", got)
	}
}

func TestModel_UnconfiguredMentionsManualKeys(t *testing.T) {
	m, _ := newTestModel(t, maker.NewClient(maker.Parse("", maker.Tuning{})))
	out := m.View()
	for _, want := range []string{"base_url", "app_id", "access_token"} {
		if !strings.Contains(out, want) {
			t.Fatalf("guidance missing %s:\n%s", want, out)
		}
	}
}
