// Package normalize holds the trimming and casing rules applied to input
// before it is stored or compared.
package normalize

import "strings"

// Email is the stored and compared form of an address: trimmed, lowercase.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims usernames and collection names. Case is kept; lookups fold
// with text.Fold.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lowercases a role for comparison with models.RoleAdmin and
// models.RoleUser.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
