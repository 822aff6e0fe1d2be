// Package ui provides the hubdash terminal dashboard.
//
// # Architecture Overview
//
// The UI is a bubbletea program. Model holds all view state; the poller in
// package app writes to state.Store and the model reads a snapshot on every
// tick, so slow hub requests never block rendering.
//
// # Views
//
//   - Devices: sortable, filterable table; enter fetches one device's attributes
//   - Variables: hub variables from the wellness endpoint
//   - Logs: tail of the hubdash log file, colorized by level
//
// # Package Structure
//
//   - ui.go: Options and Run
//   - model.go: Model, Update and key handling
//   - view.go: rendering
//   - keys.go: key bindings
//   - theme.go: color themes and lipgloss styles
//
// Theme and sort order changes are written back through package prefs.
//
// # Key Bindings
//
//   - d / v / l: Devices, Variables, Logs
//   - Tab / Shift+Tab: Cycle views
//   - j/k, g/G, PgUp/PgDn: Navigate
//   - Enter: Device details
//   - /: Filter devices
//   - s: Toggle sort (name/room)
//   - c: Test connection
//   - T: Cycle theme
//   - h or ?: Help
//   - q or Ctrl+C: Quit
package ui
