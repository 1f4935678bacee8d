package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a step catalog from a YAML file and checks its internal
// consistency: unique step ids, unique ordinals, and no duplicate field
// ids within a step. Next expressions are validated at runtime because
// they may branch on selection state.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("error unmarshalling catalog: %w", err)
	}

	if err := c.check(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}

	return &c, nil
}

func (c *Catalog) check() error {
	if len(c.Steps) == 0 {
		return fmt.Errorf("catalog has no steps")
	}

	seenIDs := map[string]bool{}
	seenOrdinals := map[int]string{}
	for _, s := range c.Steps {
		if s.ID == "" {
			return fmt.Errorf("step with ordinal %d has no id", s.Ordinal)
		}
		if s.ID == NextDone {
			return fmt.Errorf("step id %q collides with the done sentinel", s.ID)
		}
		if seenIDs[s.ID] {
			return fmt.Errorf("duplicate step id %q", s.ID)
		}
		seenIDs[s.ID] = true

		if prev, dup := seenOrdinals[s.Ordinal]; dup {
			return fmt.Errorf("steps %q and %q share ordinal %d", prev, s.ID, s.Ordinal)
		}
		seenOrdinals[s.Ordinal] = s.ID

		fieldIDs := map[string]bool{}
		for _, f := range s.Fields {
			if f.ID == "" {
				return fmt.Errorf("step %q has a field with no id", s.ID)
			}
			if fieldIDs[f.ID] {
				return fmt.Errorf("step %q has duplicate field id %q", s.ID, f.ID)
			}
			fieldIDs[f.ID] = true

			for _, r := range f.Rules {
				if r.Expr == "" && r.Remote == nil {
					return fmt.Errorf("rule %q on %s.%s has neither expr nor remote", r.Code, s.ID, f.ID)
				}
				if r.Expr != "" && r.Remote != nil {
					return fmt.Errorf("rule %q on %s.%s is both local and remote", r.Code, s.ID, f.ID)
				}
			}
		}
	}
	return nil
}
