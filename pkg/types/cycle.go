package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is a reconciliation driver state.
type State string

// Reconciliation driver states.
const (
	StateIdle      State = "idle"
	StateChecking  State = "checking"
	StateUpToDate  State = "up-to-date"
	StateUpdating  State = "updating"
	StateRestarted State = "restarted"
)

// CycleReport describes the outcome of one reconciliation cycle.
type CycleReport struct {
	StartedAt time.Time     // Cycle start.
	Duration  time.Duration // Cycle wall time.
	State     State         // Last state reached before returning to idle.
	Previous  ImageTag      // Deployed tag before the cycle, empty if unknown.
	Target    ImageTag      // Tag selected by the resolver, empty if none.
	Truncated bool          // Tag listing was truncated.
	Err       error         // Cycle error, nil on success.
}

// Updated reports whether the cycle deployed a new version.
func (r CycleReport) Updated() bool {
	return r.State == StateRestarted && r.Err == nil
}

// Failed reports whether the cycle ended with an error.
func (r CycleReport) Failed() bool {
	return r.Err != nil
}

// reportJSON is the wire form of a CycleReport.
type reportJSON struct {
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	State      State     `json:"state"`
	Previous   ImageTag  `json:"previous,omitempty"`
	Target     ImageTag  `json:"target,omitempty"`
	Truncated  bool      `json:"truncated"`
	Updated    bool      `json:"updated"`
	Error      string    `json:"error,omitempty"`
}

// MarshalJSON encodes the report with its error as text.
func (r CycleReport) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
		State:      r.State,
		Previous:   r.Previous,
		Target:     r.Target,
		Truncated:  r.Truncated,
		Updated:    r.Updated(),
	}

	if r.Err != nil {
		out.Error = r.Err.Error()
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding cycle report: %w", err)
	}

	return data, nil
}
