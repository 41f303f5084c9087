package operations

import (
	"context"
	"sync"
	"time"
)

// Step is one phase of a run. Execute reads the previous phase's output from
// data and stores its own; on success the run advances to Produces().
type Step interface {
	ID() string
	Name() string
	Produces() State
	Execute(ctx context.Context, data *RunData) error
}

// StepStatus is the lifecycle position of one Step within a run.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// StepState tracks timing and outcome of a Step; it is safe for concurrent use.
type StepState struct {
	mu        sync.RWMutex
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Rows      int        `json:"rows"`
	Error     string     `json:"error,omitempty"`
}

// NewStepState returns a pending state.
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:     id,
		Name:   name,
		Status: StepStatusPending,
	}
}

// Start marks the Step active.
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.StartTime, s.Status = &now, StepStatusActive
}

// Complete records the row count the Step produced.
func (s *StepState) Complete(rows int) {
	s.finish(StepStatusCompleted, "", rows)
}

// Fail records err as the Step's outcome.
func (s *StepState) Fail(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.finish(StepStatusFailed, msg, s.rows())
}

func (s *StepState) rows() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Rows
}

func (s *StepState) finish(status StepStatus, msg string, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime, s.Status, s.Error, s.Rows = &now, status, msg, rows
}

// CurrentStatus reads Status under the lock.
func (s *StepState) CurrentStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration is the elapsed time so far, or the total once finished.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// BaseStage holds the identity half of a Step; embed it and add Execute.
type BaseStage struct {
	id       string
	name     string
	produces State
}

func NewBaseStage(id, name string, produces State) BaseStage {
	return BaseStage{id: id, name: name, produces: produces}
}

func (b *BaseStage) ID() string { return b.id }

func (b *BaseStage) Name() string { return b.name }

func (b *BaseStage) Produces() State { return b.produces }
