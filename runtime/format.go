package runtime

import "strings"

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// FormatKey rewrites a dotted variable name to the flat underscore form used
// by the environment. Loop counters published as "trials.thisN" are stored
// under "trials_thisN" so expr-lang can address them as plain identifiers.
func FormatKey(key string) string {
	return strings.ReplaceAll(key, ".", "_")
}

// FormatExpression rewrites dotted names inside an expression to their flat
// underscore form, leaving string literals and numeric literals untouched.
// "trials.thisN + 1" becomes "trials_thisN + 1"; "'a.b'" stays "'a.b'".
func FormatExpression(e string) string {
	result := []rune(e)
	inDoubleQuote := false
	inSingleQuote := false
	inBacktick := false
	escapeNext := false

	for i, r := range result {
		if escapeNext {
			escapeNext = false
			continue
		}

		if (inDoubleQuote || inSingleQuote) && r == '\\' {
			escapeNext = true
			continue
		}

		switch r {
		case '"':
			if !inSingleQuote && !inBacktick {
				inDoubleQuote = !inDoubleQuote
			}
			continue
		case '\'':
			if !inDoubleQuote && !inBacktick {
				inSingleQuote = !inSingleQuote
			}
			continue
		case '`':
			if !inDoubleQuote && !inSingleQuote {
				inBacktick = !inBacktick
			}
			continue
		}

		if inDoubleQuote || inSingleQuote || inBacktick {
			continue
		}

		if r == '.' {
			// Keep ?. (optional chaining) and #. (lambda element accessor).
			if i > 0 && (result[i-1] == '?' || result[i-1] == '#') {
				continue
			}
			// Keep the dot in numeric literals (3.14, 0.5).
			if i > 0 && i < len(result)-1 && isDigit(result[i-1]) && isDigit(result[i+1]) {
				continue
			}
			result[i] = '_'
		}
	}
	return string(result)
}
