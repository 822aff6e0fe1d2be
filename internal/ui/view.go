package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/hubdash/internal/logtail"
	"github.com/five82/hubdash/internal/maker"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var body string
	switch {
	case m.showHelp:
		body = m.renderHelp()
	case m.current == viewDevices:
		body = m.renderDevicesBody()
	default:
		body = m.viewport.View()
	}
	body = lipgloss.NewStyle().Height(m.bodyHeight()).MaxHeight(m.bodyHeight()).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTabs(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	s := m.theme.Styles()
	status := m.connectionStatus()

	parts := []string{
		s.Logo.Render("hubdash"),
		status,
		s.MutedText.Render(m.opts.Connection.String()),
	}
	if hub := m.snapshot.Hub; hub.Name != "" || hub.Mode != "" || hub.HSMStatus != "" {
		parts = append(parts, s.InfoText.Render(hubSummary(hub)))
	}
	if m.snapshot.HasData {
		parts = append(parts,
			s.Text.Render(fmt.Sprintf("%d devices", len(m.snapshot.Devices))),
			s.Text.Render(fmt.Sprintf("%d vars", len(m.snapshot.Variables))),
		)
	}
	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, s.FaintText.Render("updated "+m.snapshot.LastUpdated.Format("15:04:05")))
	}
	return s.Header.Width(m.width).MaxWidth(m.width).Render(strings.Join(parts, "  "))
}

func hubSummary(hub maker.HubInfo) string {
	var parts []string
	if hub.Name != "" {
		parts = append(parts, hub.Name)
	}
	if hub.Mode != "" {
		parts = append(parts, "mode "+hub.Mode)
	}
	if hub.HSMStatus != "" {
		parts = append(parts, "hsm "+hub.HSMStatus)
	}
	return strings.Join(parts, " · ")
}

func (m Model) connectionStatus() string {
	s := m.theme.Styles()
	switch {
	case m.opts.Client == nil || !m.opts.Client.Configured():
		return s.WarningText.Render("● NOT CONFIGURED")
	case m.snapshot.LastError != nil:
		label := classifyConnectionError(m.snapshot.LastError)
		if m.snapshot.IsOffline() {
			label = "OFFLINE (" + label + ")"
		}
		return s.DangerText.Render("● " + label)
	case m.snapshot.HasData:
		return s.SuccessText.Render("● ONLINE")
	default:
		return s.MutedText.Render("● CONNECTING")
	}
}

// classifyConnectionError maps a poll failure onto a short status label.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	if maker.IsTimeout(err) {
		return "TIMEOUT"
	}
	switch code := maker.StatusCode(err); {
	case code == 401 || code == 403:
		return "UNAUTHORIZED"
	case code == 404:
		return "NOT FOUND"
	case code != 0:
		return "HTTP " + strconv.Itoa(code)
	}
	var reqErr *maker.RequestError
	if errors.As(err, &reqErr) && reqErr.Kind == maker.KindDecode {
		return "BAD RESPONSE"
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return "REFUSED"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "connection refused"):
		return "REFUSED"
	case strings.Contains(msg, "network is unreachable"):
		return "UNREACHABLE"
	}
	return "ERROR"
}

func (m Model) renderTabs() string {
	s := m.theme.Styles()
	tabs := make([]string, 0, len(viewNames))
	for i, name := range viewNames {
		if viewKind(i) == m.current {
			tabs = append(tabs, s.TabActive.Render(name))
		} else {
			tabs = append(tabs, s.Tab.Render(name))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.current == viewDevices {
		row += s.FaintText.Render("  sort: " + m.sortBy)
		if q := m.filter.Value(); q != "" && !m.filtering {
			row += s.AccentText.Render("  filter: " + q)
		}
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(row)
}

func (m Model) renderFooter() string {
	s := m.theme.Styles()
	if m.filtering {
		return s.Footer.Width(m.width).Render(m.filter.View())
	}

	var msg string
	switch {
	case m.testing:
		msg = s.InfoText.Render("Testing connection...")
	case m.testResult != nil && m.testResult.Success:
		msg = s.SuccessText.Render(m.testResult.Message)
	case m.testResult != nil:
		msg = s.DangerText.Render(m.testResult.Message)
	case m.detailLoading != "":
		msg = s.InfoText.Render("Loading device " + m.detailLoading + "...")
	}

	hints := "q quit  h help  tab views  c test"
	if m.current == viewDevices {
		hints += "  / filter  s sort  enter details"
	}
	if msg != "" {
		hints = msg + "  " + hints
	}
	return s.Footer.Width(m.width).MaxWidth(m.width).Render(hints)
}

func (m Model) renderDevicesBody() string {
	s := m.theme.Styles()

	if m.opts.Client == nil || !m.opts.Client.Configured() {
		return m.renderNotConfigured()
	}
	if m.detail != nil || m.detailErr != nil {
		return m.viewport.View()
	}
	if !m.snapshot.HasData {
		if m.snapshot.LastError != nil {
			return s.DangerText.Render("Unable to reach hub: " + m.snapshot.LastError.Error())
		}
		return s.MutedText.Render("Waiting for first poll...")
	}

	devices := m.visibleDevices()
	if len(devices) == 0 {
		if m.filter.Value() != "" {
			return s.MutedText.Render("No devices match " + strconv.Quote(m.filter.Value()))
		}
		return s.MutedText.Render("Hub reported no devices")
	}
	return m.renderDeviceTable(devices)
}

func (m Model) renderNotConfigured() string {
	s := m.theme.Styles()
	reason := maker.ErrNotConfigured.Error()
	if m.opts.Client != nil {
		if err := m.opts.Client.ConfigError(); err != nil {
			reason = err.Error()
		}
	}
	lines := []string{
		s.WarningText.Render("Maker API is not configured"),
		"",
		s.Text.Render(reason),
		"",
		s.MutedText.Render("In the Hubitat web UI open Apps > Maker API, copy the"),
		s.MutedText.Render("\"Get All Devices\" URL and set maker_api_url in the config file"),
		s.MutedText.Render("or the HUBDASH_MAKER_API_URL environment variable."),
		"",
		s.MutedText.Render("To supply the parts separately, leave maker_api_url unset and"),
		s.MutedText.Render("set base_url (https://cloud.hubitat.com/api/<hub-uid>), app_id and access_token."),
	}
	return s.Panel.Render(strings.Join(lines, "\n"))
}

func (m Model) renderDeviceTable(devices []maker.Device) string {
	s := m.theme.Styles()

	const idW, roomW, typeW = 6, 16, 24
	nameW := max(m.width-idW-roomW-typeW-6, 12)

	header := s.AccentText.Render(
		padRight("ID", idW) + " " + padRight("Name", nameW) + " " + padRight("Room", roomW) + " " + padRight("Type", typeW),
	)

	rows := max(m.bodyHeight()-1, 1)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(devices))

	out := []string{header}
	for i := start; i < end; i++ {
		d := devices[i]
		line := padRight(truncate(string(d.ID), idW), idW) + " " +
			padRight(truncate(d.DisplayName(), nameW), nameW) + " " +
			padRight(truncate(d.Room, roomW), roomW) + " " +
			padRight(truncate(d.Type, typeW), typeW)
		if i == m.cursor {
			out = append(out, s.Selected.Render(line))
		} else {
			out = append(out, s.Text.Render(line))
		}
	}
	return strings.Join(out, "\n")
}

func (m Model) renderDetail() string {
	s := m.theme.Styles()
	if m.detailErr != nil {
		return s.DangerText.Render("Failed to load device: "+m.detailErr.Error()) + "\n\n" +
			s.MutedText.Render("esc to return")
	}
	d := m.detail
	lines := []string{
		s.Logo.Render(d.DisplayName()),
		s.MutedText.Render("id " + string(d.ID) + "  type " + d.Type),
	}
	if d.Room != "" {
		lines = append(lines, s.MutedText.Render("room "+d.Room))
	}
	lines = append(lines, "")
	if len(d.Attributes) == 0 {
		lines = append(lines, s.FaintText.Render("No attributes reported"))
	}
	nameW := 4
	for _, a := range d.Attributes {
		nameW = max(nameW, len(a.Name))
	}
	for _, a := range d.Attributes {
		value := a.Value()
		if value == "" {
			value = "-"
		}
		lines = append(lines, s.AccentText.Render(padRight(a.Name, nameW))+"  "+s.Text.Render(value))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderVariables() string {
	s := m.theme.Styles()
	vars := m.snapshot.Variables
	if len(vars) == 0 {
		if m.snapshot.VariablesError != nil {
			return s.DangerText.Render("Hub variables unavailable: " + m.snapshot.VariablesError.Error())
		}
		if !m.snapshot.HasData {
			return s.MutedText.Render("Waiting for first poll...")
		}
		return s.MutedText.Render("No hub variables reported")
	}

	names := make([]string, 0, len(vars))
	nameW := 4
	for name := range vars {
		names = append(names, name)
		nameW = max(nameW, len(name))
	}
	slices.Sort(names)

	lines := make([]string, 0, len(names)+1)
	if m.snapshot.VariablesError != nil {
		lines = append(lines, s.WarningText.Render("Last refresh failed: "+m.snapshot.VariablesError.Error()))
	}
	for _, name := range names {
		lines = append(lines, s.AccentText.Render(padRight(name, nameW))+"  "+s.Text.Render(formatValue(vars[name])))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLogs() string {
	s := m.theme.Styles()
	if m.opts.LogPath == "" {
		return s.MutedText.Render("Logging disabled")
	}
	if len(m.logLines) == 0 {
		return s.MutedText.Render("No log entries in " + m.opts.LogPath)
	}
	out := make([]string, 0, len(m.logLines))
	for _, raw := range m.logLines {
		out = append(out, styleLogLine(s, logtail.ParseLine(raw)))
	}
	return strings.Join(out, "\n")
}

func styleLogLine(s Styles, line logtail.Line) string {
	if !line.Parsed() {
		return s.Text.Render(line.Raw)
	}
	var level string
	switch strings.ToUpper(line.Level) {
	case "ERROR":
		level = s.DangerText.Render("ERR ")
	case "WARN":
		level = s.WarningText.Render("WRN ")
	case "DEBUG":
		level = s.FaintText.Render("DBG ")
	default:
		level = s.InfoText.Render("INF ")
	}

	ts := line.Time
	if i := strings.IndexByte(ts, 'T'); i >= 0 && len(ts) >= i+9 {
		ts = ts[i+1 : i+9]
	}

	parts := []string{s.FaintText.Render(ts), level, s.Text.Render(line.Message)}
	for _, a := range line.Attrs {
		parts = append(parts, s.MutedText.Render(a.Key+"=")+s.Text.Render(a.Value))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderHelp() string {
	s := m.theme.Styles()
	var lines []string
	lines = append(lines, s.Logo.Render("Keyboard shortcuts"), "")
	for _, group := range m.keys.helpGroups() {
		for _, b := range group {
			h := b.Help()
			lines = append(lines, s.AccentText.Render(padRight(h.Key, 12))+s.Text.Render(h.Desc))
		}
		lines = append(lines, "")
	}
	lines = append(lines, s.FaintText.Render("theme: "+m.themeName))
	return s.Panel.Render(strings.Join(lines, "\n"))
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
