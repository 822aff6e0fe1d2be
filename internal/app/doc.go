// Package app provides the orchestration layer for hubdash.
//
// # Overview
//
// This package wires together configuration, the Maker API client, polling,
// metrics and the UI. It is the composition root where all dependencies are
// initialized and connected.
//
// # Startup
//
//  1. Load ~/.config/hubdash/config.toml (HUBDASH_MAKER_API_URL overrides the URL;
//     base_url, app_id and access_token replace it when it is unset)
//  2. Open the slog text log file; the TUI owns the terminal
//  3. Parse the Maker API URL and build a maker.Client with the metrics observer
//  4. In check mode, run one connection test, print the result and return
//  5. Optionally serve Prometheus metrics on metrics_addr
//  6. Start the poller when the URL is usable; its first refresh runs in the
//     background so the UI opens at once in its waiting state
//  7. Start the TUI and block until the user exits or the context cancels
//
// An unusable URL is not fatal. The dashboard starts anyway and shows the
// validation message so the user knows what to fix.
//
// # Polling
//
// Each refresh runs the device list and the hub variables requests
// concurrently through an errgroup. A failed device list counts as a failed
// poll and increments ConsecutiveFailures in the store. A failed variables
// request is recorded beside the devices and never fails the poll.
//
// # Components
//
//   - app.go: Run, check mode and log setup
//   - poller.go: Background refresh loop feeding state.Store
package app
