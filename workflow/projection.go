package workflow

import (
	"github.com/plancraft/plancraft/plan"
	"github.com/plancraft/plancraft/pricing"
	"github.com/plancraft/plancraft/validation"
)

// FieldView is one visible field of the current step, with its entered
// value and latest field-level validation result.
type FieldView struct {
	ID       string             `json:"id"`
	Required bool               `json:"required"`
	Value    any                `json:"value,omitempty"`
	Result   *validation.Result `json:"result,omitempty"`
}

// Projection is the read-only view handed to presentation layers. They
// never mutate state directly, only through UpdateField, Advance, Back,
// and Reset.
type Projection struct {
	SessionID     string                `json:"sessionId"`
	CurrentStepID string                `json:"currentStepId"`
	Completed     bool                  `json:"completed"`
	Fields        []FieldView           `json:"fields"`
	StepStatus    map[string]StepStatus `json:"stepStatus"`
	Evaluated     []string              `json:"evaluated"`
	Price         pricing.PriceSummary  `json:"price"`
}

// Projection builds the current read-only view of the session.
func (e *Engine) Projection() Projection {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := Projection{
		SessionID:     e.state.SessionID,
		CurrentStepID: e.state.CurrentStepID,
		Completed:     e.state.CurrentStepID == StateCompleted,
		Fields:        []FieldView{},
		StepStatus:    make(map[string]StepStatus, len(e.state.StepStatus)),
		Evaluated:     append([]string{}, e.state.Evaluated...),
		Price:         e.price,
	}
	for k, v := range e.state.StepStatus {
		p.StepStatus[k] = v
	}

	step, ok := e.defs.Step(e.state.CurrentStepID)
	if !ok {
		return p
	}

	sel := e.state.Selection.Clone()
	for _, field := range e.validator.VisibleFields(step, sel) {
		view := FieldView{ID: field.ID, Required: field.Required}
		if value, entered := sel.Field(step.ID, field.ID); entered {
			view.Value = value
		}
		if res, checked := e.fieldResults[plan.FieldKey(step.ID, field.ID)]; checked {
			r := res
			view.Result = &r
		}
		p.Fields = append(p.Fields, view)
	}
	return p
}
