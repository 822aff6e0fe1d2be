package maker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DeviceID is a Maker API device identifier. The API reports it as a string
// on most firmware and as a number on some older builds.
type DeviceID string

// UnmarshalJSON accepts both "12" and 12.
func (id *DeviceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = DeviceID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("device id: %w", err)
	}
	*id = DeviceID(n.String())
	return nil
}

// Device mirrors an entry of /devices or the body of /devices/<id>.
type Device struct {
	ID         DeviceID   `json:"id"`
	Name       string     `json:"name"`
	Label      string     `json:"label"`
	Type       string     `json:"type"`
	Room       string     `json:"room,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// DisplayName prefers the user-assigned label.
func (d Device) DisplayName() string {
	if label := strings.TrimSpace(d.Label); label != "" {
		return label
	}
	if name := strings.TrimSpace(d.Name); name != "" {
		return name
	}
	return "device " + string(d.ID)
}

// Attribute is one current device attribute value.
type Attribute struct {
	Name         string `json:"name"`
	CurrentValue any    `json:"currentValue"`
	DataType     string `json:"dataType,omitempty"`
}

// Value formats CurrentValue for display.
func (a Attribute) Value() string {
	switch v := a.CurrentValue.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Attributes decodes both the array form returned by /devices/<id> and the
// name->value object form returned by /devices/all.
type Attributes []Attribute

// UnmarshalJSON implements json.Unmarshaler.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = nil
		return nil
	}
	switch data[0] {
	case '[':
		var list []Attribute
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("attributes: %w", err)
		}
		*a = list
	case '{':
		var byName map[string]any
		if err := json.Unmarshal(data, &byName); err != nil {
			return fmt.Errorf("attributes: %w", err)
		}
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		list := make([]Attribute, 0, len(names))
		for _, name := range names {
			list = append(list, Attribute{Name: name, CurrentValue: byName[name]})
		}
		*a = list
	default:
		return fmt.Errorf("attributes: unexpected json %q", truncate(string(data), 32))
	}
	return nil
}

// Lookup returns the named attribute.
func (a Attributes) Lookup(name string) (Attribute, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr, true
		}
	}
	return Attribute{}, false
}

// HubInfo is the typed view of the /hubInfo body. The metadata fields are
// best effort and empty when the hub reports them in an unexpected shape.
type HubInfo struct {
	Name      string
	Firmware  string
	HSMStatus string
	Mode      string
	Variables map[string]any
}

// DeviceSummary is the payload attached to a successful connection test.
type DeviceSummary struct {
	DeviceCount int
	Devices     []Device
}

// Result is the outcome of TestConnection.
type Result struct {
	Success bool
	Message string
	Data    *DeviceSummary
}

// HubVariablesResult is the outcome of HubVariables. Variables is never nil.
type HubVariablesResult struct {
	Success   bool
	Variables map[string]any
	Info      HubInfo
	Raw       map[string]any
	Error     string
}

// WellnessResult is the outcome of WellnessData. Data is never nil. Info
// carries the hub metadata from the same /hubInfo response.
type WellnessResult struct {
	Success bool
	Data    map[string]any
	Info    HubInfo
	Error   string
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
