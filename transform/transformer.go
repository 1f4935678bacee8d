// Package transform adapts between the canonical internal model and the
// backend's wire shapes. All shape knowledge lives in per-operation mapping
// tables, so a backend field migration is an edit to the table for the
// affected operation and nothing else.
package transform

import (
	"sort"
	"strings"

	"github.com/Jeffail/gabs/v2"

	"github.com/plancraft/plancraft/endpoint"
)

// FieldMapping relates one canonical field path to its wire path. Paths
// are dotted and may cross nesting levels ("profile.email" ↔ "email").
type FieldMapping struct {
	Canonical string
	Wire      string
	// Optional fields may be absent on either side without raising a
	// ShapeMismatchError.
	Optional bool
}

// Table is the full mapping for one operation.
type Table []FieldMapping

// Transformer applies mapping tables in both directions. Both methods are
// pure: they never touch the network and never mutate their input.
type Transformer struct {
	tables map[endpoint.Operation]Table
}

func NewTransformer() *Transformer {
	return &Transformer{tables: defaultTables()}
}

// Register installs or replaces the table for an operation.
func (t *Transformer) Register(op endpoint.Operation, table Table) {
	t.tables[op] = table
}

// ToWire converts a canonical payload into the wire shape for op. Every
// canonical field must be covered by the table; an unmapped field is a
// ShapeMismatchError, not a silent drop.
func (t *Transformer) ToWire(op endpoint.Operation, canonical map[string]any) (map[string]any, error) {
	table, ok := t.tables[op]
	if !ok {
		return nil, &ShapeMismatchError{Operation: op, Field: "", Direction: DirectionToWire, missingTable: true}
	}
	return apply(op, table, canonical, DirectionToWire)
}

// FromWire converts a backend payload into the canonical shape for op.
func (t *Transformer) FromWire(op endpoint.Operation, wire map[string]any) (map[string]any, error) {
	table, ok := t.tables[op]
	if !ok {
		return nil, &ShapeMismatchError{Operation: op, Field: "", Direction: DirectionFromWire, missingTable: true}
	}
	return apply(op, table, wire, DirectionFromWire)
}

func apply(op endpoint.Operation, table Table, in map[string]any, dir Direction) (map[string]any, error) {
	// Canonical input is fully owned by this codebase, so a field the
	// table does not map is contract drift and must fail loudly, never be
	// dropped. Wire input is the backend's to extend; extra wire fields
	// pass through unmapped.
	if dir == DirectionToWire {
		if field := uncoveredField(table, in); field != "" {
			return nil, &ShapeMismatchError{Operation: op, Field: field, Direction: dir}
		}
	}

	src := gabs.Wrap(in)
	dst := gabs.New()

	for _, m := range table {
		from, to := m.Canonical, m.Wire
		if dir == DirectionFromWire {
			from, to = m.Wire, m.Canonical
		}

		if !src.ExistsP(from) {
			if m.Optional {
				continue
			}
			return nil, &ShapeMismatchError{Operation: op, Field: from, Direction: dir}
		}

		if _, err := dst.SetP(src.Path(from).Data(), to); err != nil {
			return nil, &ShapeMismatchError{Operation: op, Field: to, Direction: dir}
		}
	}

	out, ok := dst.Data().(map[string]any)
	if !ok {
		// empty table yields an empty object
		out = map[string]any{}
	}
	return out, nil
}

// uncoveredField returns the first canonical leaf path, in sorted order,
// that no table row maps, or "" when the table covers the whole input.
func uncoveredField(table Table, in map[string]any) string {
	var leaves []string
	collectLeaves("", in, &leaves)
	sort.Strings(leaves)
	for _, path := range leaves {
		if !covers(table, path) {
			return path
		}
	}
	return ""
}

func collectLeaves(prefix string, value any, out *[]string) {
	m, ok := value.(map[string]any)
	if !ok || len(m) == 0 {
		if prefix != "" {
			*out = append(*out, prefix)
		}
		return
	}
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		collectLeaves(path, v, out)
	}
}

// covers reports whether a row maps the path, exactly or as a subtree
// ("items" covers "items.0.id").
func covers(table Table, path string) bool {
	for _, m := range table {
		if m.Canonical == path || strings.HasPrefix(path, m.Canonical+".") {
			return true
		}
	}
	return false
}
