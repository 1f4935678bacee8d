package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrCompleted is returned for mutations on a finished session.
	ErrCompleted = errors.New("session is completed")
	// ErrNotStarted is returned for Back() before the first Advance().
	ErrNotStarted = errors.New("session has not started")
	// ErrAtFirstStep is returned for Back() on the initial step.
	ErrAtFirstStep = errors.New("already at the first step")
)

// UnknownStepError indicates a caller or a next-step resolver referenced
// a step id the catalog does not define.
type UnknownStepError struct {
	StepID string
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("unknown step %q", e.StepID)
}

// UnknownFieldError indicates an UpdateField call for a field the step
// does not define.
type UnknownFieldError struct {
	StepID  string
	FieldID string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("step %q has no field %q", e.StepID, e.FieldID)
}

// ResolverLoopError indicates the next-step resolvers cycled without
// reaching a visible step or the done sentinel.
type ResolverLoopError struct {
	StartStepID string
}

func (e *ResolverLoopError) Error() string {
	return fmt.Sprintf("next-step resolution starting at %q did not terminate", e.StartStepID)
}
