// Package exprs evaluates the expression strings used throughout the step
// catalog: visibility predicates, next-step resolvers, and validation rules.
package exprs

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// Eval compiles and runs an expression against the given environment.
// Missing variables evaluate to nil instead of failing compilation, so
// predicates can reference fields that have not been entered yet.
func Eval(expression string, env map[string]any) (any, error) {
	// null as alias for nil keeps catalog YAML readable
	env["null"] = nil

	// defined() distinguishes a missing key from an explicit null
	definedFn := expr.Function(
		"defined",
		func(params ...any) (any, error) {
			key, ok := params[0].(string)
			if !ok {
				return false, fmt.Errorf("defined() expects string key argument, got %T", params[0])
			}
			_, exists := env[FormatKey(key)]
			return exists, nil
		},
		new(func(string) bool),
	)

	// NOTE: expr.Env must come before AllowUndefinedVariables for it to work
	opts := []expr.Option{
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		definedFn,
	}

	program, err := expr.Compile(FormatExpression(expression), opts...)
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env)
}

// EvalBool evaluates an expression that must produce a boolean.
func EvalBool(expression string, env map[string]any) (bool, error) {
	result, err := Eval(expression, env)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q evaluated to %T, expected boolean", expression, result)
	}
	return b, nil
}

// EvalString evaluates an expression that must produce a string.
func EvalString(expression string, env map[string]any) (string, error) {
	result, err := Eval(expression, env)
	if err != nil {
		return "", err
	}
	s, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("expression %q evaluated to %T, expected string", expression, result)
	}
	return s, nil
}
