// Package logtail reads the end of the hubdash log file for the UI log pane.
//
// # Reading Log Files
//
// Read keeps a ring buffer of maxLines entries and scans the file once, so
// memory stays O(maxLines) regardless of file size. A missing file yields
// nil, nil; the log may not exist until the first record is written.
//
//	lines, err := logtail.Read(cfg.LogFile, 200)
//
// # Parsing
//
// hubdash writes its log with slog.TextHandler:
//
//	time=2026-10-15T10:00:00.000Z level=INFO msg="maker api client initialized" app_id=12
//
// ParseLine decodes such records with go-logfmt into time, level, message
// and the remaining attributes so the UI can style each part. Anything that does not parse
// (panics, stray output) is returned with only Raw set.
package logtail
