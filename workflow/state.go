package workflow

import (
	"encoding/json"

	"github.com/plancraft/plancraft/plan"
)

// Sentinel states on either side of the step sequence.
const (
	StateNotStarted = "NotStarted"
	StateCompleted  = "Completed"
)

// StepStatus is the per-step validation status kept for resume and audit.
type StepStatus string

const (
	StatusPending StepStatus = "pending"
	StatusValid   StepStatus = "valid"
	StatusInvalid StepStatus = "invalid"
	StatusSkipped StepStatus = "skipped"
)

// State is the single source of truth for one configuration session. It
// is owned and mutated exclusively by the Engine; everything else sees
// snapshots or the read-only Projection.
type State struct {
	SessionID     string                `json:"sessionId"`
	CurrentStepID string                `json:"currentStepId"`
	Selection     plan.Selection        `json:"selection"`
	StepStatus    map[string]StepStatus `json:"stepStatus"`
	// Evaluated is the audit trail of steps the engine has evaluated,
	// including steps it auto-advanced through.
	Evaluated []string `json:"evaluated"`
	// History records user-visible steps in visit order, for Back().
	History []string `json:"history"`
}

func NewState(sessionID string) State {
	return State{
		SessionID:     sessionID,
		CurrentStepID: StateNotStarted,
		Selection:     plan.NewSelection(),
		StepStatus:    map[string]StepStatus{},
		Evaluated:     []string{},
		History:       []string{},
	}
}

// Marshal serializes the state for the session store. Unmarshal of the
// produced bytes reproduces an identical state, including selection
// order and step position.
func (s State) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

func UnmarshalState(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, err
	}
	if s.StepStatus == nil {
		s.StepStatus = map[string]StepStatus{}
	}
	return s, nil
}
