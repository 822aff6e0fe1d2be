package maker

import (
	"errors"
	"fmt"
)

// Configuration errors returned by Parse and by every method of an
// unconfigured Client.
var (
	ErrNotConfigured      = errors.New("maker api url not configured: paste your Maker API URL into the config")
	ErrMissingBaseURL     = errors.New("invalid URL format - cannot find base URL")
	ErrMissingAppID       = errors.New("invalid URL format - cannot find app ID")
	ErrMissingAccessToken = errors.New("invalid URL format - cannot find access token")
)

const timeoutMessage = "Request timeout - check your network connection"

// ErrorKind classifies a failed request.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindTimeout
	KindHTTP
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindHTTP:
		return "http"
	case KindDecode:
		return "decode"
	default:
		return "transport"
	}
}

// RequestError reports a request that reached the transport but did not
// produce a usable payload. Err never carries the access token.
type RequestError struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	StatusText string
	Err        error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.StatusText)
	case KindTimeout:
		return timeoutMessage
	case KindDecode:
		return fmt.Sprintf("decode response: %v", e.Err)
	default:
		return fmt.Sprintf("execute request: %v", e.Err)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.Kind == KindTimeout
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Kind == KindHTTP {
		return reqErr.StatusCode
	}
	return 0
}
