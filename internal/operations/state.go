package operations

import (
	"sync"
	"time"
)

// State is the phase a run has reached.
type State string

const (
	StateIdle        State = "idle"
	StateExtracted   State = "extracted"
	StateValidated   State = "validated"
	StateTransformed State = "transformed"
	StateLoaded      State = "loaded"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// next lists the only successor of every non-terminal state besides Failed.
var next = map[State]State{
	StateIdle:        StateExtracted,
	StateExtracted:   StateValidated,
	StateValidated:   StateTransformed,
	StateTransformed: StateLoaded,
	StateLoaded:      StateDone,
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// Next returns the successor of s in the happy path.
func (s State) Next() (State, bool) {
	n, ok := next[s]
	return n, ok
}

// RunState tracks one run through the state machine.
type RunState struct {
	mu sync.RWMutex

	ID        string       `json:"id"`
	State     State        `json:"state"`
	StartTime time.Time    `json:"start_time"`
	EndTime   *time.Time   `json:"end_time,omitempty"`
	Steps     []*StepState `json:"steps"`
	Error     error        `json:"-"`
}

// NewRunState creates a run in the Idle state
func NewRunState(id string) *RunState {
	return &RunState{
		ID:        id,
		State:     StateIdle,
		StartTime: time.Now(),
	}
}

// Current returns the current state
func (r *RunState) Current() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.State
}

// Advance moves the run to "to", which must be the successor of the current state.
func (r *RunState) Advance(to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := next[r.State]; !ok || n != to {
		return NewInvalidStateError(r.State, to)
	}
	r.State = to
	if to == StateDone {
		now := time.Now()
		r.EndTime = &now
	}
	return nil
}

// Fail moves a non-terminal run to Failed and records err.
func (r *RunState) Fail(err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State.Terminal() {
		return NewInvalidStateError(r.State, StateFailed)
	}
	now := time.Now()
	r.State = StateFailed
	r.EndTime = &now
	r.Error = err
	return nil
}

// AddStep appends the state of a started step
func (r *RunState) AddStep(s *StepState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Steps = append(r.Steps, s)
}

// Duration returns the run duration so far
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}
