package environ

import "strings"

const (
	posixSingleQuoteConstant        = "'"
	posixEscapedSingleQuoteConstant = `'\''`
)

// QuoteForPOSIXShell wraps a value in single quotes safe for guest shell execution.
//
// Embedded single quotes are closed, escaped, and reopened so arbitrary path
// content survives the bridge verbatim.
func QuoteForPOSIXShell(value string) string {
	escapedValue := strings.ReplaceAll(value, posixSingleQuoteConstant, posixEscapedSingleQuoteConstant)
	return posixSingleQuoteConstant + escapedValue + posixSingleQuoteConstant
}

// QuoteAllForPOSIXShell quotes every value and joins them with single spaces.
func QuoteAllForPOSIXShell(values []string) string {
	quotedValues := make([]string, 0, len(values))
	for _, value := range values {
		quotedValues = append(quotedValues, QuoteForPOSIXShell(value))
	}
	return strings.Join(quotedValues, " ")
}
