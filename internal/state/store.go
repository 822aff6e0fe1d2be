package state

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/five82/hubdash/internal/maker"
)

// Poll is the data gathered by one refresh cycle.
type Poll struct {
	Devices      []maker.Device
	Variables    map[string]any
	VariablesErr error
	Hub          maker.HubInfo
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Devices             []maker.Device
	Variables           map[string]any
	Hub                 maker.HubInfo // name, mode and HSM status; Variables is unset
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	VariablesError      error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the hub has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility. A variables failure alone is
// recorded without counting as a failed poll.
func (s *Store) Update(poll *Poll, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil || poll == nil {
		if err == nil {
			err = fmt.Errorf("empty poll")
		}
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Devices = cloneDevices(poll.Devices)
	if poll.VariablesErr == nil {
		s.snapshot.Variables = maps.Clone(poll.Variables)
		s.snapshot.Hub = poll.Hub
		s.snapshot.Hub.Variables = nil
	}
	s.snapshot.VariablesError = poll.VariablesErr
	s.snapshot.HasData = true
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Devices = cloneDevices(s.snapshot.Devices)
	snap.Variables = maps.Clone(s.snapshot.Variables)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneDevices(devices []maker.Device) []maker.Device {
	if len(devices) == 0 {
		return nil
	}
	dup := make([]maker.Device, len(devices))
	copy(dup, devices)
	for i := range dup {
		if len(dup[i].Attributes) > 0 {
			dup[i].Attributes = append(maker.Attributes(nil), dup[i].Attributes...)
		}
	}
	return dup
}
