// Package validation evaluates field- and step-level rules from the step
// catalog. Local rules run synchronously; remote rules (uniqueness and
// similar server-checked constraints) dispatch through the request
// executor and are race-guarded so a stale response never lands.
package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/plancraft/plancraft/backend"
	"github.com/plancraft/plancraft/catalog"
	"github.com/plancraft/plancraft/endpoint"
	"github.com/plancraft/plancraft/exprs"
	"github.com/plancraft/plancraft/plan"
	"github.com/plancraft/plancraft/transform"
)

// ErrStaleResult signals that a newer call for the same slot was issued
// while this validation was in flight. The caller must discard the result
// without applying it.
var ErrStaleResult = errors.New("validation result superseded by a newer request")

// Caller is the slice of the request executor the engine needs.
type Caller interface {
	Execute(ctx context.Context, desc endpoint.RequestDescriptor, opts backend.CallOptions) (backend.ResponseEnvelope, error)
	Guard() *backend.SlotGuard
}

type Engine struct {
	registry    *endpoint.Registry
	caller      Caller
	transformer *transform.Transformer
	l           *slog.Logger
}

func NewEngine(registry *endpoint.Registry, caller Caller, transformer *transform.Transformer, l *slog.Logger) *Engine {
	return &Engine{
		registry:    registry,
		caller:      caller,
		transformer: transformer,
		l:           l,
	}
}

// ValidateField runs the local, synchronous rules for one field against a
// selection snapshot. Remote rules are step-level concerns and are not
// dispatched here.
func (e *Engine) ValidateField(step catalog.StepDefinition, field catalog.FieldDefinition, value any, sel plan.Selection) Result {
	if field.Required && isEmpty(value) {
		return Invalid(CodeRequired, fmt.Sprintf("%s is required", field.ID)).ForField(field.ID)
	}
	if isEmpty(value) {
		return Valid()
	}

	env := exprs.SelectionEnv(sel)
	env["value"] = value

	for _, rule := range field.Rules {
		if rule.Expr == "" {
			continue
		}
		ok, err := exprs.EvalBool(rule.Expr, env)
		if err != nil {
			e.l.Error("rule evaluation failed",
				"step", step.ID,
				"field", field.ID,
				"rule", rule.Code,
				"error", err.Error())
			return Invalid(CodeRuleError, fmt.Sprintf("rule %s could not be evaluated", rule.Code)).ForField(field.ID)
		}
		if !ok {
			return Invalid(rule.Code, rule.Message).ForField(field.ID)
		}
	}

	return Valid()
}

// ValidateStep validates every field visible under the step's visibility
// rules. All synchronous rules run first so cheap checks gate the
// expensive ones; remote rules are dispatched only when every local rule
// has passed. Invisible fields are excluded from required-ness entirely.
//
// A non-nil error is either ErrStaleResult or a backend failure; in both
// cases the returned Result carries no meaning and must not be applied.
func (e *Engine) ValidateStep(ctx context.Context, step catalog.StepDefinition, sel plan.Selection, authToken string) (Result, error) {
	visible := e.VisibleFields(step, sel)

	for _, field := range visible {
		value, _ := sel.Field(step.ID, field.ID)
		if res := e.ValidateField(step, field, value, sel); !res.Valid {
			return res, nil
		}
	}

	for _, field := range visible {
		value, _ := sel.Field(step.ID, field.ID)
		if isEmpty(value) {
			continue
		}
		for _, rule := range field.Rules {
			if rule.Remote == nil {
				continue
			}
			res, err := e.checkRemote(ctx, step, field, rule, value, authToken)
			if err != nil {
				return Result{}, err
			}
			if !res.Valid {
				return res, nil
			}
		}
	}

	return Valid(), nil
}

// VisibleFields filters the step's fields by their visibility predicates
// over the selection snapshot. A predicate that fails to evaluate hides
// the field and is logged: hiding is the conservative choice because an
// invisible field is exempt from required-ness.
func (e *Engine) VisibleFields(step catalog.StepDefinition, sel plan.Selection) []catalog.FieldDefinition {
	env := exprs.SelectionEnv(sel)
	visible := make([]catalog.FieldDefinition, 0, len(step.Fields))
	for _, field := range step.Fields {
		if field.Visible == "" {
			visible = append(visible, field)
			continue
		}
		shown, err := exprs.EvalBool(field.Visible, env)
		if err != nil {
			e.l.Error("visibility predicate failed",
				"step", step.ID,
				"field", field.ID,
				"error", err.Error())
			continue
		}
		if shown {
			visible = append(visible, field)
		}
	}
	return visible
}

func (e *Engine) checkRemote(ctx context.Context, step catalog.StepDefinition, field catalog.FieldDefinition, rule catalog.RuleDefinition, value any, authToken string) (Result, error) {
	op := endpoint.Operation(rule.Remote.Operation)
	desc, err := e.registry.Resolve(op, endpoint.Params{
		Filters: map[string]string{
			"field": rule.Remote.Field,
			"value": fmt.Sprintf("%v", value),
		},
	})
	if err != nil {
		// programmer error in the catalog; propagate unguarded
		return Result{}, err
	}

	ticket := e.caller.Guard().Issue(desc.SlotKey())
	envelope, err := e.caller.Execute(ctx, desc, backend.CallOptions{
		AuthToken: authToken,
		Ticket:    &ticket,
	})
	if !e.caller.Guard().Current(ticket) {
		return Result{}, ErrStaleResult
	}
	if err != nil {
		return Result{}, err
	}

	data, err := e.transformer.FromWire(op, envelope.Raw)
	if err != nil {
		return Result{}, err
	}

	env := map[string]any{}
	exprs.Flatten(env, "data", data)
	ok, err := exprs.EvalBool(rule.Remote.Expect, env)
	if err != nil {
		e.l.Error("remote rule expectation failed to evaluate",
			"step", step.ID,
			"field", field.ID,
			"rule", rule.Code,
			"error", err.Error())
		return Invalid(CodeRuleError, fmt.Sprintf("rule %s could not be evaluated", rule.Code)).ForField(field.ID), nil
	}
	if !ok {
		return Invalid(rule.Code, rule.Message).ForField(field.ID), nil
	}
	return Valid(), nil
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case int:
		return v == 0
	case int64:
		return v == 0
	case float64:
		return v == 0
	case bool:
		return !v
	default:
		return false
	}
}
