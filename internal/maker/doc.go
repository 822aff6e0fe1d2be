// Package maker provides a read-only client for the Hubitat Maker API.
//
// # Overview
//
// The Maker API exposes a hub's devices over HTTP under a per-app URL that
// carries its own access token. Users copy that URL out of the hub's web UI;
// this package turns it into connection parameters and wraps the handful of
// GET endpoints hubdash needs.
//
// # Parsing
//
// Parse locates three pieces in the pasted URL, in order:
//
//   - base URL: scheme://host/api/<hub-uid>
//   - app ID: the digits after /apps/
//   - access token: the access_token query value, up to the next &
//
// The first missing piece decides the error (ErrMissingBaseURL,
// ErrMissingAppID, ErrMissingAccessToken). An empty value or the template
// placeholder yields ErrNotConfigured before any pattern runs. Only cloud
// style URLs (.../api/<uid>/apps/N/...) are recognized. ParseManual accepts
// the base URL, app ID and token as separate values instead.
//
// # Client Usage
//
//	conn := maker.Parse(cfg.MakerAPIURL, maker.Tuning{RequestTimeout: 10 * time.Second})
//	client := maker.NewClient(conn, maker.WithLogger(logger))
//
//	res := client.TestConnection(ctx)
//	fmt.Println(res.Message) // "Connected! Found 42 devices"
//
//	devices, err := client.AllDevices(ctx)
//	if err != nil {
//		log.Printf("devices: %v", err)
//	}
//
// # API Endpoints
//
// All paths are relative to <base>/apps/<appId>:
//
//   - GET /devices: device list
//   - GET /devices/<id>: one device with attributes
//   - GET /hubInfo: hub details, including variables when exposed. Missing or
//     oddly shaped variables yield an empty mapping, not a failure.
//
// # Error Contract
//
// The methods deliberately differ in how they report failure:
//
//   - TestConnection, HubVariables and WellnessData never return an error;
//     the outcome lives in the returned struct.
//   - AllDevices and Device return (value, error). Request failures are
//     *RequestError with a Kind of KindHTTP, KindTimeout, KindTransport or
//     KindDecode.
//
// A client built from an invalid Connection answers every method from the
// stored configuration error and never touches the network.
//
// # Timeouts
//
// Every request runs under its own context.WithTimeout derived from the
// caller's context, covering both the response and the body read. A deadline
// hit is reported as KindTimeout. There are no retries.
//
// # Secrets
//
// The access token is sent as a query parameter on every request. Request
// traces replace it with TOKEN_HIDDEN, and transport errors are stripped of
// the request URL before they are returned or logged.
package maker
