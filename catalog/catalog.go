// Package catalog holds the static step definitions the workflow engine
// runs against. Definitions are loaded from YAML once at startup and are
// read-only at runtime.
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// NextDone is the sentinel a next-step resolver returns when the final
// visible step has been completed.
const NextDone = "done"

type Catalog struct {
	ID    string           `yaml:"id"`
	Steps []StepDefinition `yaml:"steps"`
}

// StepDefinition describes one configuration step. Visible and Next are
// expressions over the current selection; an empty Visible means the step
// is always shown, an empty Next falls through to the next ordinal.
type StepDefinition struct {
	ID      string            `yaml:"id"`
	Ordinal int               `yaml:"ordinal"`
	Visible string            `yaml:"visible,omitempty"`
	Next    string            `yaml:"next,omitempty"`
	Fields  []FieldDefinition `yaml:"fields"`
}

type FieldDefinition struct {
	ID       string           `yaml:"id"`
	Required bool             `yaml:"required"`
	Visible  string           `yaml:"visible,omitempty"`
	Rules    []RuleDefinition `yaml:"rules,omitempty"`
	// Component binds the field to a plan component: a truthy value
	// (quantity) selects it, zero or nil deselects it.
	Component *ComponentSpec `yaml:"component,omitempty"`
}

// RuleDefinition is a single validation rule. Local rules carry an Expr
// that must evaluate to true; remote rules name a backend operation and an
// Expect expression over the transformed response.
type RuleDefinition struct {
	Code    string      `yaml:"code"`
	Message string      `yaml:"message"`
	Expr    string      `yaml:"expr,omitempty"`
	Remote  *RemoteRule `yaml:"remote,omitempty"`
}

// RemoteRule dispatches a backend call during step validation, e.g. a
// uniqueness check. The field's value is sent as the "value" filter.
type RemoteRule struct {
	Operation string `yaml:"operation"`
	Field     string `yaml:"field"`
	Expect    string `yaml:"expect"`
}

type ComponentSpec struct {
	ID        string          `yaml:"id"`
	Kind      string          `yaml:"kind"`
	UnitPrice decimal.Decimal `yaml:"unitPrice"`
	Prorated  bool            `yaml:"prorated,omitempty"`
}

// UnmarshalYAML parses the unit price through decimal so catalog authors
// can write exact amounts like "9.50".
func (c *ComponentSpec) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		ID        string `yaml:"id"`
		Kind      string `yaml:"kind"`
		UnitPrice string `yaml:"unitPrice"`
		Prorated  bool   `yaml:"prorated"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}

	price, err := decimal.NewFromString(aux.UnitPrice)
	if err != nil {
		return fmt.Errorf("component %q has invalid unitPrice %q: %w", aux.ID, aux.UnitPrice, err)
	}

	c.ID = aux.ID
	c.Kind = aux.Kind
	c.UnitPrice = price
	c.Prorated = aux.Prorated
	return nil
}

// Step returns the definition with the given id.
func (c *Catalog) Step(id string) (StepDefinition, bool) {
	for _, s := range c.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return StepDefinition{}, false
}

// First returns the step with the lowest ordinal.
func (c *Catalog) First() (StepDefinition, bool) {
	if len(c.Steps) == 0 {
		return StepDefinition{}, false
	}
	first := c.Steps[0]
	for _, s := range c.Steps[1:] {
		if s.Ordinal < first.Ordinal {
			first = s
		}
	}
	return first, true
}

// After returns the step with the next higher ordinal, used when a step
// declares no explicit next expression.
func (c *Catalog) After(id string) (StepDefinition, bool) {
	current, ok := c.Step(id)
	if !ok {
		return StepDefinition{}, false
	}
	var best StepDefinition
	found := false
	for _, s := range c.Steps {
		if s.Ordinal <= current.Ordinal {
			continue
		}
		if !found || s.Ordinal < best.Ordinal {
			best = s
			found = true
		}
	}
	return best, found
}
