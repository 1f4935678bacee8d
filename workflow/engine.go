// Package workflow sequences configuration steps over the static catalog,
// gating advancement on validation and recomputing the price on every
// selection change. The Engine is the only component that mutates
// workflow state.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/plancraft/plancraft/catalog"
	"github.com/plancraft/plancraft/exprs"
	"github.com/plancraft/plancraft/plan"
	"github.com/plancraft/plancraft/pricing"
	"github.com/plancraft/plancraft/store"
	"github.com/plancraft/plancraft/validation"
)

// Validator is the slice of the validation engine the workflow needs.
type Validator interface {
	ValidateField(step catalog.StepDefinition, field catalog.FieldDefinition, value any, sel plan.Selection) validation.Result
	ValidateStep(ctx context.Context, step catalog.StepDefinition, sel plan.Selection, authToken string) (validation.Result, error)
	VisibleFields(step catalog.StepDefinition, sel plan.Selection) []catalog.FieldDefinition
}

type Engine struct {
	mu sync.Mutex

	defs      *catalog.Catalog
	validator Validator
	pricer    *pricing.Calculator
	discounts []pricing.Discount
	st        store.Store
	l         *slog.Logger

	state        State
	price        pricing.PriceSummary
	fieldResults map[string]validation.Result
}

func NewEngine(sessionID string, defs *catalog.Catalog, validator Validator, pricer *pricing.Calculator, discounts []pricing.Discount, st store.Store, l *slog.Logger) *Engine {
	e := &Engine{
		defs:         defs,
		validator:    validator,
		pricer:       pricer,
		discounts:    discounts,
		st:           st,
		l:            l,
		state:        NewState(sessionID),
		fieldResults: map[string]validation.Result{},
	}
	e.price = pricer.ComputeTotal(e.state.Selection.Clone(), discounts)
	return e
}

// Resume rebuilds an engine from persisted state. Field results are not
// persisted; they are recomputed as the operator touches fields again.
func Resume(ctx context.Context, sessionID string, defs *catalog.Catalog, validator Validator, pricer *pricing.Calculator, discounts []pricing.Discount, st store.Store, l *slog.Logger) (*Engine, error) {
	data, err := st.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state, err := UnmarshalState(data)
	if err != nil {
		return nil, fmt.Errorf("error decoding persisted state for session %s: %w", sessionID, err)
	}

	e := NewEngine(sessionID, defs, validator, pricer, discounts, st, l)
	e.state = state
	e.price = pricer.ComputeTotal(state.Selection.Clone(), discounts)
	return e, nil
}

// Advance validates the current step and, when valid, moves to the step
// chosen by the current step's next-step resolver. Steps that are not
// visible or expose zero visible fields are auto-advanced through, each
// recorded as evaluated. On an invalid result the state is unchanged and
// the triggering field's result is returned.
func (e *Engine) Advance(ctx context.Context, authToken string) (validation.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state.CurrentStepID {
	case StateCompleted:
		return validation.Result{}, ErrCompleted
	case StateNotStarted:
		first, ok := e.defs.First()
		if !ok {
			return validation.Result{}, fmt.Errorf("catalog has no steps")
		}
		if err := e.enter(first); err != nil {
			return validation.Result{}, err
		}
		e.persist(ctx)
		return validation.Valid(), nil
	}

	step, ok := e.defs.Step(e.state.CurrentStepID)
	if !ok {
		return validation.Result{}, &UnknownStepError{StepID: e.state.CurrentStepID}
	}

	res, err := e.validator.ValidateStep(ctx, step, e.state.Selection.Clone(), authToken)
	if err != nil {
		// stale results and backend failures alike: state stays at its
		// last-known-valid value
		return validation.Result{}, err
	}
	if !res.Valid {
		e.state.StepStatus[step.ID] = StatusInvalid
		e.persist(ctx)
		return res, nil
	}

	e.state.StepStatus[step.ID] = StatusValid
	next, done, err := e.resolveNext(step)
	if err != nil {
		return validation.Result{}, err
	}

	e.state.History = append(e.state.History, step.ID)
	if done {
		e.state.CurrentStepID = StateCompleted
	} else if err := e.enter(next); err != nil {
		return validation.Result{}, err
	}

	e.persist(ctx)
	return res, nil
}

// Back returns to the previously visited step. Entered data for the step
// being left is kept: data survives forward and back navigation.
func (e *Engine) Back(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.CurrentStepID == StateNotStarted {
		return ErrNotStarted
	}
	if len(e.state.History) == 0 {
		return ErrAtFirstStep
	}

	last := len(e.state.History) - 1
	prev := e.state.History[last]
	e.state.History = e.state.History[:last]
	e.state.CurrentStepID = prev
	e.persist(ctx)
	return nil
}

// UpdateField mutates one field value, runs that field's local
// validation, and recomputes the price. It never validates the whole
// step; that happens on Advance.
func (e *Engine) UpdateField(ctx context.Context, stepID, fieldID string, value any) (validation.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.CurrentStepID == StateCompleted {
		return validation.Result{}, ErrCompleted
	}

	step, ok := e.defs.Step(stepID)
	if !ok {
		return validation.Result{}, &UnknownStepError{StepID: stepID}
	}
	field, ok := fieldDef(step, fieldID)
	if !ok {
		return validation.Result{}, &UnknownFieldError{StepID: stepID, FieldID: fieldID}
	}

	if field.Component != nil {
		e.applyComponent(field, value)
	}
	e.state.Selection.SetField(stepID, fieldID, value)

	res := e.validator.ValidateField(step, field, value, e.state.Selection.Clone())
	e.fieldResults[plan.FieldKey(stepID, fieldID)] = res

	// a changed selection invalidates any earlier step-level pass
	if e.state.StepStatus[stepID] == StatusValid {
		e.state.StepStatus[stepID] = StatusPending
	}

	e.price = e.pricer.ComputeTotal(e.state.Selection.Clone(), e.discounts)
	e.persist(ctx)
	return res, nil
}

// Reset clears the session back to NotStarted with an empty selection.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = NewState(e.state.SessionID)
	e.fieldResults = map[string]validation.Result{}
	e.price = e.pricer.ComputeTotal(e.state.Selection.Clone(), e.discounts)
	e.persist(ctx)
}

// enter walks from target through invisible or empty steps until it finds
// a step the operator must interact with, or the sequence completes. Each
// evaluated step is recorded for audit and resume.
func (e *Engine) enter(target catalog.StepDefinition) error {
	start := target.ID
	for range e.defs.Steps {
		e.recordEvaluated(target.ID)

		if e.stepVisible(target) {
			if fields := e.validator.VisibleFields(target, e.state.Selection.Clone()); len(fields) > 0 {
				e.state.CurrentStepID = target.ID
				if _, ok := e.state.StepStatus[target.ID]; !ok {
					e.state.StepStatus[target.ID] = StatusPending
				}
				return nil
			}
		}

		e.state.StepStatus[target.ID] = StatusSkipped
		e.l.Info("auto-advancing through step", "step", target.ID)

		next, done, err := e.resolveNext(target)
		if err != nil {
			return err
		}
		if done {
			e.state.CurrentStepID = StateCompleted
			return nil
		}
		target = next
	}
	return &ResolverLoopError{StartStepID: start}
}

func (e *Engine) stepVisible(step catalog.StepDefinition) bool {
	if step.Visible == "" {
		return true
	}
	visible, err := exprs.EvalBool(step.Visible, exprs.SelectionEnv(e.state.Selection.Clone()))
	if err != nil {
		e.l.Error("step visibility predicate failed",
			"step", step.ID,
			"error", err.Error())
		return false
	}
	return visible
}

// resolveNext runs the step's next-step resolver, a pure function of the
// selection. An empty resolver falls through to the next ordinal; the
// done sentinel completes the workflow.
func (e *Engine) resolveNext(step catalog.StepDefinition) (catalog.StepDefinition, bool, error) {
	if step.Next == "" {
		next, ok := e.defs.After(step.ID)
		if !ok {
			return catalog.StepDefinition{}, true, nil
		}
		return next, false, nil
	}

	id, err := exprs.EvalString(step.Next, exprs.SelectionEnv(e.state.Selection.Clone()))
	if err != nil {
		return catalog.StepDefinition{}, false, fmt.Errorf("error resolving next step after %s: %w", step.ID, err)
	}
	if id == catalog.NextDone {
		return catalog.StepDefinition{}, true, nil
	}
	next, ok := e.defs.Step(id)
	if !ok {
		return catalog.StepDefinition{}, false, &UnknownStepError{StepID: id}
	}
	return next, false, nil
}

func (e *Engine) applyComponent(field catalog.FieldDefinition, value any) {
	spec := field.Component
	qty := toQuantity(value)
	if qty <= 0 {
		e.state.Selection.Remove(spec.ID)
		return
	}
	e.state.Selection.Upsert(plan.Component{
		ID:        spec.ID,
		Kind:      plan.ComponentKind(spec.Kind),
		UnitPrice: spec.UnitPrice,
		Quantity:  qty,
		Prorated:  spec.Prorated,
	})
}

// persist writes through to the session store on every mutation. A failed
// write is logged, not fatal: the in-memory state remains authoritative
// for the current session.
func (e *Engine) persist(ctx context.Context) {
	data, err := e.state.Marshal()
	if err != nil {
		e.l.Warn("state serialization failed",
			"session", e.state.SessionID,
			"error", err.Error())
		return
	}
	if err := e.st.Save(ctx, e.state.SessionID, data); err != nil {
		e.l.Warn("state persist failed",
			"session", e.state.SessionID,
			"error", err.Error())
	}
}

func (e *Engine) recordEvaluated(stepID string) {
	n := len(e.state.Evaluated)
	if n > 0 && e.state.Evaluated[n-1] == stepID {
		return
	}
	e.state.Evaluated = append(e.state.Evaluated, stepID)
}

func fieldDef(step catalog.StepDefinition, fieldID string) (catalog.FieldDefinition, bool) {
	for _, f := range step.Fields {
		if f.ID == fieldID {
			return f, true
		}
	}
	return catalog.FieldDefinition{}, false
}

func toQuantity(value any) int64 {
	switch v := value.(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case decimal.Decimal:
		return v.IntPart()
	default:
		return 0
	}
}
