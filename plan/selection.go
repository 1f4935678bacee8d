package plan

// Selection is the accumulated set of chosen plan components and entered
// field values across the workflow so far. It is mutated only by the
// workflow engine; validators and the pricing calculator receive read
// snapshots via Clone and never write back.
type Selection struct {
	// Components keeps insertion order so that persistence round-trips
	// reproduce the exact selection order.
	Components []Component `json:"components"`
	// Fields holds entered values keyed by "stepID.fieldID".
	Fields map[string]any `json:"fields"`
}

func NewSelection() Selection {
	return Selection{
		Components: []Component{},
		Fields:     map[string]any{},
	}
}

// FieldKey builds the canonical key for a field value.
func FieldKey(stepID, fieldID string) string {
	return stepID + "." + fieldID
}

func (s *Selection) SetField(stepID, fieldID string, value any) {
	if s.Fields == nil {
		s.Fields = map[string]any{}
	}
	s.Fields[FieldKey(stepID, fieldID)] = value
}

func (s *Selection) Field(stepID, fieldID string) (any, bool) {
	v, ok := s.Fields[FieldKey(stepID, fieldID)]
	return v, ok
}

// Upsert adds the component or, if a component with the same ID is already
// selected, replaces it in place so selection order is stable.
func (s *Selection) Upsert(c Component) {
	for i, existing := range s.Components {
		if existing.ID == c.ID {
			s.Components[i] = c
			return
		}
	}
	s.Components = append(s.Components, c)
}

// Remove drops the component with the given ID, preserving the order of
// the remaining components.
func (s *Selection) Remove(id string) {
	for i, existing := range s.Components {
		if existing.ID == id {
			s.Components = append(s.Components[:i], s.Components[i+1:]...)
			return
		}
	}
}

func (s *Selection) Has(id string) bool {
	for _, c := range s.Components {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to validators and the pricing
// calculator while the engine keeps mutating the original.
func (s Selection) Clone() Selection {
	out := Selection{
		Components: make([]Component, len(s.Components)),
		Fields:     make(map[string]any, len(s.Fields)),
	}
	copy(out.Components, s.Components)
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	return out
}
