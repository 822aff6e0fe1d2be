// Package config loads hubdash's TOML configuration.
//
// # Configuration Discovery
//
// Load reads the given path, or ~/.config/hubdash/config.toml when the path
// is empty. A missing file is not an error: defaults are used and hubdash
// starts in the "not configured" state until a Maker API URL is supplied.
//
// # TOML Format
//
//	maker_api_url = "https://cloud.hubitat.com/api/<hub-uid>/apps/12/devices?access_token=<token>"
//	refresh_interval_ms = 30000
//	request_timeout_ms = 10000
//	log_file = "~/.local/state/hubdash/hubdash.log"
//	metrics_addr = "127.0.0.1:9464"
//	wellness_prefix = "wellness_"
//
// Every field is optional. Non-positive intervals fall back to 30000 and
// 10000 milliseconds. An empty metrics_addr disables the metrics endpoint;
// an empty wellness_prefix passes every hub variable through.
//
// # Environment
//
// HUBDASH_MAKER_API_URL, when set, replaces maker_api_url. This keeps the
// access token out of files that might be shared.
package config
