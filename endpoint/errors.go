package endpoint

import "fmt"

// UnknownOperationError indicates a caller asked for an operation the
// registry has no builder for. This is a programmer error and is never
// retried.
type UnknownOperationError struct {
	Operation Operation
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Operation)
}

// MissingParameterError indicates a required parameter for the operation
// was absent. Programmer error, never retried.
type MissingParameterError struct {
	Operation Operation
	Param     string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("operation %q requires parameter %q", e.Operation, e.Param)
}
