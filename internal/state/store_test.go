package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/hubdash/internal/maker"
)

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	devices := []maker.Device{{ID: "1", Name: "Lamp"}, {ID: "2", Name: "Door"}}
	vars := map[string]any{"wellness_score": 80.0}

	before := time.Now()
	s.Update(&Poll{Devices: devices, Variables: vars}, nil)

	snap := s.Snapshot()
	if !snap.HasData {
		t.Fatalf("HasData = false, want true")
	}
	if len(snap.Devices) != 2 || snap.Devices[0].ID != "1" {
		t.Fatalf("snapshot devices = %#v, want 2 devices", snap.Devices)
	}
	if snap.Variables["wellness_score"] != 80.0 {
		t.Fatalf("snapshot variables = %#v", snap.Variables)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Neither the caller's inputs nor a returned snapshot alias the stored one.
	devices[0].ID = "999"
	vars["wellness_score"] = 1.0
	snap.Devices[1].ID = "888"
	snap.Variables["extra"] = true

	snap2 := s.Snapshot()
	if snap2.Devices[0].ID != "1" || snap2.Devices[1].ID != "2" {
		t.Fatalf("Snapshot should clone devices; got %#v", snap2.Devices)
	}
	if len(snap2.Variables) != 1 || snap2.Variables["wellness_score"] != 80.0 {
		t.Fatalf("Snapshot should clone variables; got %#v", snap2.Variables)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update(&Poll{Devices: []maker.Device{{ID: "1"}}}, nil)
	prev := s.Snapshot()

	before := time.Now()
	origErr := errors.New("boom")
	s.Update(nil, origErr)

	snap := s.Snapshot()
	if snap.HasData != prev.HasData || len(snap.Devices) != 1 || snap.Devices[0].ID != "1" {
		t.Fatalf("devices changed on error: got %#v want %#v", snap.Devices, prev.Devices)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_VariablesErrorKeepsPreviousVariables(t *testing.T) {
	var s Store

	s.Update(&Poll{Variables: map[string]any{"a": 1.0}}, nil)
	s.Update(&Poll{Devices: []maker.Device{{ID: "5"}}, VariablesErr: errors.New("HTTP 404: Not Found")}, nil)

	snap := s.Snapshot()
	if snap.Variables["a"] != 1.0 {
		t.Fatalf("Variables = %#v, want previous variables kept", snap.Variables)
	}
	if snap.VariablesError == nil || snap.LastError != nil || snap.ConsecutiveFailures != 0 {
		t.Fatalf("snapshot = %+v, want variables error only", snap)
	}
	if len(snap.Devices) != 1 {
		t.Fatalf("Devices = %#v, want updated devices", snap.Devices)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("initial snapshot = %+v, want online with 0 failures", snap)
	}

	s.Update(nil, errors.New("fail 1"))
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(nil, errors.New("fail 2"))
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(nil, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 3 || snap.LastError == nil {
		t.Fatalf("nil poll: failures=%d err=%v, want counted failure", snap.ConsecutiveFailures, snap.LastError)
	}

	s.Update(&Poll{}, nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success: failures=%d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
}
