package maker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// API defines the Maker API operations used by the poller and the UI.
// This interface is implemented by *Client and can be used for testing.
type API interface {
	TestConnection(ctx context.Context) Result
	AllDevices(ctx context.Context) ([]Device, error)
	Device(ctx context.Context, idOrName string) (*Device, error)
	HubVariables(ctx context.Context) HubVariablesResult
	WellnessData(ctx context.Context, prefix string) WellnessResult
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer receives one call per finished request. Outcome is "success" or an
// ErrorKind name.
type Observer interface {
	ObserveRequest(endpoint, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, string, time.Duration) {}

const (
	defaultUserAgent = "hubdash/0.1"
	redactedToken    = "TOKEN_HIDDEN"

	endpointDevices = "/devices"
	endpointHubInfo = "/hubInfo"
)

// Client talks to one Maker API app instance.
type Client struct {
	baseURL    string
	appID      string
	token      string
	timeout    time.Duration
	configured bool
	configErr  error

	http      Doer
	userAgent string
	logger    *slog.Logger
	observer  Observer
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the transport used for every request.
func WithHTTPClient(d Doer) ClientOption {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

// WithLogger sets the logger receiving request traces.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver sets the request metrics observer.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewClient builds a Client from conn. An invalid conn yields an
// unconfigured client whose methods all report conn.Err() without touching
// the network.
func NewClient(conn Connection, opts ...ClientOption) *Client {
	c := &Client{
		http:      http.DefaultClient,
		userAgent: defaultUserAgent,
		logger:    slog.New(slog.DiscardHandler),
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if !conn.Valid {
		c.configErr = conn.Err()
		c.logger.Error("maker api not configured", "error", c.configErr)
		return c
	}

	c.baseURL = strings.TrimRight(conn.BaseURL, "/")
	c.appID = conn.AppID
	c.token = conn.AccessToken
	c.timeout = conn.RequestTimeout
	if c.timeout <= 0 {
		c.timeout = DefaultRequestTimeout
	}
	c.configured = true
	c.logger.Info("maker api client initialized", "base_url", c.baseURL, "app_id", c.appID)
	return c
}

// Configured reports whether the client was built from a valid connection.
func (c *Client) Configured() bool {
	return c != nil && c.configured
}

// ConfigError returns the stored configuration error of an unconfigured client.
func (c *Client) ConfigError() error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if c.configured {
		return nil
	}
	return c.configErr
}

// TestConnection lists devices once and summarizes the outcome. It never
// returns an error; every failure is reported through Result.
func (c *Client) TestConnection(ctx context.Context) Result {
	if err := c.ConfigError(); err != nil {
		return Result{Message: err.Error()}
	}

	c.logger.Info("testing maker api connection")
	devices, err := c.AllDevices(ctx)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.Kind == KindHTTP {
			return Result{Message: reqErr.Error()}
		}
		return Result{Message: "Connection failed: " + err.Error()}
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Connected! Found %d devices", len(devices)),
		Data:    &DeviceSummary{DeviceCount: len(devices), Devices: devices},
	}
}

// AllDevices lists every device exposed to the Maker API app. Failures are
// returned as errors, unlike TestConnection and HubVariables.
func (c *Client) AllDevices(ctx context.Context) ([]Device, error) {
	if err := c.ConfigError(); err != nil {
		return nil, err
	}
	var devices []Device
	if err := c.get(ctx, endpointDevices, endpointDevices, &devices); err != nil {
		c.logger.Error("fetch devices failed", "error", err)
		return nil, err
	}
	return devices, nil
}

// Device fetches one device with its current attributes.
func (c *Client) Device(ctx context.Context, idOrName string) (*Device, error) {
	if err := c.ConfigError(); err != nil {
		return nil, err
	}
	idOrName = strings.TrimSpace(idOrName)
	if idOrName == "" {
		return nil, fmt.Errorf("device id required")
	}
	var device Device
	endpoint := endpointDevices + "/" + url.PathEscape(idOrName)
	if err := c.get(ctx, endpoint, endpointDevices+"/:id", &device); err != nil {
		c.logger.Error("fetch device failed", "device", idOrName, "error", err)
		return nil, err
	}
	return &device, nil
}

// HubVariables fetches /hubInfo and extracts its variables. It never returns
// an error; failures are reported through Success and Error.
func (c *Client) HubVariables(ctx context.Context) HubVariablesResult {
	failed := func(err error) HubVariablesResult {
		return HubVariablesResult{Variables: map[string]any{}, Error: err.Error()}
	}
	if err := c.ConfigError(); err != nil {
		return failed(err)
	}

	c.logger.Debug("fetching hub variables")
	var body any
	if err := c.get(ctx, endpointHubInfo, endpointHubInfo, &body); err != nil {
		c.logger.Error("fetch hub variables failed", "error", err)
		return failed(err)
	}

	// A body that is not an object simply has no variables.
	raw, _ := body.(map[string]any)
	if raw == nil {
		raw = map[string]any{}
	}
	info := decodeHubInfo(raw)
	return HubVariablesResult{
		Success:   true,
		Variables: info.Variables,
		Info:      info,
		Raw:       raw,
	}
}

// WellnessData returns the hub variables whose names start with prefix. An
// empty prefix passes every variable through unfiltered.
func (c *Client) WellnessData(ctx context.Context, prefix string) WellnessResult {
	vars := c.HubVariables(ctx)
	if !vars.Success {
		return WellnessResult{Data: map[string]any{}, Error: vars.Error}
	}
	if prefix == "" {
		return WellnessResult{Success: true, Data: vars.Variables, Info: vars.Info}
	}
	data := make(map[string]any)
	for name, value := range vars.Variables {
		if strings.HasPrefix(name, prefix) {
			data[name] = value
		}
	}
	return WellnessResult{Success: true, Data: data, Info: vars.Info}
}

func (c *Client) requestURL(endpoint string) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return c.baseURL + "/apps/" + c.appID + endpoint + sep + "access_token=" + c.token
}

func (c *Client) redact(s string) string {
	if c.token == "" {
		return s
	}
	return strings.ReplaceAll(s, c.token, redactedToken)
}

// get performs one GET bounded by the request timeout and decodes the JSON
// body into dest. The deadline covers both the response and the body read.
func (c *Client) get(ctx context.Context, endpoint, label string, dest any) (err error) {
	reqURL := c.requestURL(endpoint)
	reqID := uuid.NewString()
	c.logger.Debug("maker request", "request_id", reqID, "url", c.redact(reqURL))

	start := time.Now()
	defer func() {
		outcome := "success"
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			outcome = reqErr.Kind.String()
		}
		c.observer.ObserveRequest(label, outcome, time.Since(start))
		c.logger.Debug("maker response", "request_id", reqID, "outcome", outcome, "elapsed", time.Since(start))
	}()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &RequestError{Kind: KindTransport, Endpoint: label, Err: fmt.Errorf("create request: %w", c.scrub(err))}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(reqCtx, label, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{
			Kind:       KindHTTP,
			Endpoint:   label,
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return &RequestError{Kind: KindTimeout, Endpoint: label, Err: context.DeadlineExceeded}
		}
		return &RequestError{Kind: KindDecode, Endpoint: label, Err: c.scrub(err)}
	}
	return nil
}

func (c *Client) transportError(reqCtx context.Context, label string, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &RequestError{Kind: KindTimeout, Endpoint: label, Err: context.DeadlineExceeded}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &RequestError{Kind: KindTimeout, Endpoint: label, Err: c.scrub(err)}
	}
	return &RequestError{Kind: KindTransport, Endpoint: label, Err: c.scrub(err)}
}

// scrub strips the request URL that net/url and net/http embed in their
// errors, then redacts anything left over.
func (c *Client) scrub(err error) error {
	if err == nil {
		return nil
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	msg := err.Error()
	if c.token != "" && strings.Contains(msg, c.token) {
		return errors.New(c.redact(msg))
	}
	return err
}

func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

var variablesType = reflect.TypeOf(map[string]any{})

// decodeHubInfo never fails. Variables falls back to an empty mapping when
// missing or malformed, and each metadata field is decoded on its own so a
// mismatch in one cannot hide the others.
func decodeHubInfo(raw map[string]any) HubInfo {
	return HubInfo{
		Name:      hubString(raw["name"]),
		Firmware:  hubString(raw["firmwareVersionString"]),
		HSMStatus: hubString(raw["hsmStatus"]),
		Mode:      hubString(raw["mode"]),
		Variables: decodeVariables(raw["variables"]),
	}
}

func decodeVariables(v any) map[string]any {
	vars := map[string]any{}
	if v == nil {
		return vars
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: namedValueListHook,
		Result:     &vars,
	})
	if err != nil {
		return map[string]any{}
	}
	if err := decoder.Decode(v); err != nil {
		return map[string]any{}
	}
	return vars
}

// hubString renders a metadata value as text. Objects such as
// {"id":1,"name":"Day"} yield their name; values that do not convert yield "".
func hubString(v any) string {
	if obj, ok := v.(map[string]any); ok {
		v = obj["name"]
	}
	if v == nil {
		return ""
	}
	var s string
	if err := mapstructure.WeakDecode(v, &s); err != nil {
		return ""
	}
	return s
}

// namedValueListHook turns [{"name": n, "value": v}, ...] into {n: v} so hubs
// that report variables as a list still yield a mapping.
func namedValueListHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Slice || to != variablesType {
		return data, nil
	}
	items, ok := data.([]any)
	if !ok {
		return data, nil
	}
	out := make(map[string]any, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		if name == "" {
			continue
		}
		out[name] = entry["value"]
	}
	return out, nil
}
