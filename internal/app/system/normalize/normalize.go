// Package normalize canonicalizes user-entered strings before they are
// stored or compared.
package normalize

import "strings"

// Email trims and lower-cases an address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims and collapses inner whitespace, preserving case.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Location is Name for free-text places. Compatibility scoring compares
// locations by exact equality, so every write goes through here.
func Location(s string) string {
	return Name(s)
}

// Role lower-cases a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
