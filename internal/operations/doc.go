// Package operations runs the Extract, Validate, Transform and Load phases of
// a batch run through a strict state machine.
//
// Core Components:
//
// Pipeline: Executes its steps in order from a fresh Idle state on every Run.
// Each step must produce the successor of the current state; a step out of
// order, a failed step or a cancelled context ends the run in Failed with an
// *OperationError.
//
// Step: One phase. It reads the previous phase's output from RunData and
// stores its own. ExtractStep, ValidateStep, TransformStep and LoadStep are
// the phases of a run.
//
// Sink: One output of the Load phase. Sinks stage their output and the Load
// phase publishes all of them together, or none.
//
// Observer: Receives run and phase events. SlogObserver logs them,
// OTelObserver records spans and metrics, MultiObserver fans out.
//
// States:
//
//	idle -> extracted -> validated -> transformed -> loaded -> done
//	any non-terminal state -> failed
package operations
