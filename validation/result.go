package validation

// Result is the outcome of a field or step validation: either valid, or
// invalid with a reason code and a user-facing message. Invalid results
// are user-correctable and are never logged as system faults.
type Result struct {
	Valid      bool   `json:"valid"`
	FieldID    string `json:"fieldId,omitempty"`
	ReasonCode string `json:"reasonCode,omitempty"`
	Message    string `json:"message,omitempty"`
}

func Valid() Result {
	return Result{Valid: true}
}

func Invalid(reasonCode, message string) Result {
	return Result{ReasonCode: reasonCode, Message: message}
}

// ForField attaches the triggering field id to an invalid result.
func (r Result) ForField(fieldID string) Result {
	r.FieldID = fieldID
	return r
}

// Reason codes produced by the engine itself. Rule-specific codes come
// from the catalog.
const (
	CodeRequired  = "required"
	CodeRuleError = "rule-error"
)
