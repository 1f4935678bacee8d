package exprs

import (
	"fmt"

	"github.com/plancraft/plancraft/plan"
)

// SelectionEnv builds the expression environment for a selection
// snapshot. Field values are exposed under their flat keys
// ("account_email" for step "account", field "email"), components as a
// list of maps, and selected() as a callable helper.
func SelectionEnv(sel plan.Selection) map[string]any {
	env := map[string]any{}

	for key, value := range sel.Fields {
		Flatten(env, FormatKey(key), value)
	}

	components := make([]map[string]any, 0, len(sel.Components))
	for _, c := range sel.Components {
		components = append(components, map[string]any{
			"id":       c.ID,
			"kind":     string(c.Kind),
			"quantity": c.Quantity,
			"price":    c.UnitPrice.InexactFloat64(),
		})
	}
	env["components"] = components
	env["selected"] = sel.Has

	return env
}

// Flatten stores a value at every level of its structure so expressions
// can address both intermediate objects (shipping != null) and leaves
// (shipping_city == "Oslo").
func Flatten(env map[string]any, prefix string, value any) {
	env[prefix] = value

	if m, ok := value.(map[string]any); ok {
		for k, v := range m {
			Flatten(env, prefix+"_"+FormatKey(k), v)
		}
	}

	if arr, ok := value.([]any); ok {
		for i, v := range arr {
			Flatten(env, fmt.Sprintf("%s_%d", prefix, i), v)
		}
	}
}
