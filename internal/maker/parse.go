package maker

import (
	"regexp"
	"strings"
	"time"
)

// Placeholder is the unfilled template value shipped in the example config.
const Placeholder = "PASTE_YOUR_URL_HERE"

const (
	DefaultRefreshInterval = 30 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
)

var (
	baseURLPattern = regexp.MustCompile(`(https?://[^/]+/api/[^/]+)`)
	appIDPattern   = regexp.MustCompile(`/apps/(\d+)`)
	tokenPattern   = regexp.MustCompile(`access_token=([^&]+)`)
	numericPattern = regexp.MustCompile(`^\d+$`)
)

// Tuning carries the refresh and timeout values applied to a valid Connection.
// Zero or negative values fall back to the defaults.
type Tuning struct {
	RefreshInterval time.Duration
	RequestTimeout  time.Duration
}

func (t Tuning) withDefaults() Tuning {
	if t.RefreshInterval <= 0 {
		t.RefreshInterval = DefaultRefreshInterval
	}
	if t.RequestTimeout <= 0 {
		t.RequestTimeout = DefaultRequestTimeout
	}
	return t
}

// Connection is the parsed, validated set of fields needed to address a
// Maker API instance. When Valid is false only Err is meaningful.
type Connection struct {
	Valid           bool
	BaseURL         string
	AppID           string
	AccessToken     string
	RawURL          string
	RefreshInterval time.Duration
	RequestTimeout  time.Duration

	err error
}

// Err returns the validation failure, or nil for a valid connection.
func (c Connection) Err() error {
	if c.Valid {
		return nil
	}
	if c.err == nil {
		return ErrNotConfigured
	}
	return c.err
}

// ValidationError returns the human-readable validation failure, or "".
func (c Connection) ValidationError() string {
	if err := c.Err(); err != nil {
		return err.Error()
	}
	return ""
}

// String describes the connection without the access token.
func (c Connection) String() string {
	if !c.Valid {
		return "invalid maker connection: " + c.ValidationError()
	}
	return c.BaseURL + "/apps/" + c.AppID
}

func invalid(err error) Connection {
	return Connection{err: err}
}

// Parse extracts the base URL, app ID and access token from a pasted Maker API
// URL such as
//
//	https://cloud.hubitat.com/api/<hub-uid>/apps/12/devices?access_token=<token>
//
// The pieces are located independently and in order; the first one missing
// decides the returned validation error. Parse never performs I/O.
//
// Surrounding whitespace is ignored when matching, so a value that is blank
// after trimming reports ErrNotConfigured and a token never picks up a
// trailing newline. RawURL keeps the input exactly as given.
func Parse(raw string, tuning Tuning) Connection {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == Placeholder {
		return invalid(ErrNotConfigured)
	}

	base := baseURLPattern.FindStringSubmatch(trimmed)
	if base == nil {
		return invalid(ErrMissingBaseURL)
	}
	appID := appIDPattern.FindStringSubmatch(trimmed)
	if appID == nil {
		return invalid(ErrMissingAppID)
	}
	token := tokenPattern.FindStringSubmatch(trimmed)
	if token == nil {
		return invalid(ErrMissingAccessToken)
	}

	tuning = tuning.withDefaults()
	return Connection{
		Valid:           true,
		BaseURL:         base[1],
		AppID:           appID[1],
		AccessToken:     token[1],
		RawURL:          raw,
		RefreshInterval: tuning.RefreshInterval,
		RequestTimeout:  tuning.RequestTimeout,
	}
}

// ParseManual builds a Connection from individually supplied parts instead of
// one pasted URL. Requests still go to baseURL + "/apps/" + appID.
func ParseManual(baseURL, appID, token string, tuning Tuning) Connection {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	appID = strings.TrimSpace(appID)
	token = strings.TrimSpace(token)

	if baseURL == "" && appID == "" && token == "" {
		return invalid(ErrNotConfigured)
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return invalid(ErrMissingBaseURL)
	}
	if !numericPattern.MatchString(appID) {
		return invalid(ErrMissingAppID)
	}
	if token == "" {
		return invalid(ErrMissingAccessToken)
	}

	tuning = tuning.withDefaults()
	return Connection{
		Valid:           true,
		BaseURL:         baseURL,
		AppID:           appID,
		AccessToken:     token,
		RawURL:          baseURL + "/apps/" + appID + "/devices?access_token=" + token,
		RefreshInterval: tuning.RefreshInterval,
		RequestTimeout:  tuning.RequestTimeout,
	}
}
