// Package state provides thread-safe state sharing between the poller and the UI.
//
// The poller calls Store.Update once per refresh; the UI reads Store.Snapshot
// on its own tick. Snapshots are deep enough copies that neither side can
// mutate data the other is holding.
//
// A failed device fetch keeps the previous data and bumps
// ConsecutiveFailures; two in a row mark the hub offline. A failed hub
// variables fetch is recorded separately and keeps the previous variables,
// since many hubs do not expose variables at all.
package state
