package exprs

import "strings"

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// FormatKey converts a dotted field key ("account.email") into the flat
// underscore form used in expression environments ("account_email").
func FormatKey(key string) string {
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}

// FormatExpression rewrites dotted identifiers in an expression to the flat
// underscore convention, leaving string literals, numeric literals, and the
// ?. operator untouched.
func FormatExpression(e string) string {
	result := []rune(e)
	inDoubleQuote := false
	inBacktick := false
	escapeNext := false

	for i, r := range result {
		if escapeNext {
			escapeNext = false
			continue
		}

		if inDoubleQuote && r == '\\' {
			escapeNext = true
			continue
		}

		if r == '"' && !inBacktick {
			inDoubleQuote = !inDoubleQuote
			continue
		}
		if r == '`' && !inDoubleQuote {
			inBacktick = !inBacktick
			continue
		}

		if inDoubleQuote || inBacktick {
			continue
		}

		switch r {
		case '.':
			// ?. is the optional chaining operator, #. is the lambda
			// element accessor; leave both alone
			if i > 0 && (result[i-1] == '?' || result[i-1] == '#') {
				continue
			}
			// don't touch numeric literals like 3.14
			if i > 0 && i < len(result)-1 && isDigit(result[i-1]) && isDigit(result[i+1]) {
				continue
			}
			result[i] = '_'
		case '-':
			// hyphenated identifiers like one-time become one_time;
			// a spaced minus operator stays a minus
			if i > 0 && i < len(result)-1 && result[i-1] != ' ' && result[i+1] != ' ' &&
				!isDigit(result[i-1]) && !isDigit(result[i+1]) {
				result[i] = '_'
			}
		}
	}
	return string(result)
}
