package transform

import (
	"fmt"

	"github.com/plancraft/plancraft/endpoint"
)

// Direction tells which way a transformation was running when it failed.
type Direction string

const (
	DirectionToWire   Direction = "to-wire"
	DirectionFromWire Direction = "from-wire"
)

// ShapeMismatchError reports backend contract drift: a field the mapping
// table expects is missing or cannot be placed. It names the offending
// field path so operators can tell "changed shape" from "unreachable".
type ShapeMismatchError struct {
	Operation endpoint.Operation
	Field     string
	Direction Direction

	missingTable bool
}

func (e *ShapeMismatchError) Error() string {
	if e.missingTable {
		return fmt.Sprintf("no %s mapping table for operation %q", e.Direction, e.Operation)
	}
	return fmt.Sprintf("shape mismatch for operation %q (%s): field %q", e.Operation, e.Direction, e.Field)
}
