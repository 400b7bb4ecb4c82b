package circuit

import "strings"

// normalizeName implements the case-insensitive name comparison used
// throughout the circuit for both node and component names, matching
// original_source's pervasive "name.lower()" convention.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
