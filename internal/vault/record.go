package vault

import "strings"

// sensitiveSubstrings and sensitiveSuffix implement the sensitivity
// heuristic callers may rely on: a credential name containing any of these
// substrings, or ending in "_id", is treated as sensitive and, when
// prompted for interactively, is read with echo suppressed.
var sensitiveSubstrings = []string{"secret", "api_key", "password"}

const sensitiveSuffix = "_id"

// IsSensitiveName reports whether name should be stored encrypted and
// prompted for with echo suppression.
func IsSensitiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return strings.HasSuffix(lower, sensitiveSuffix)
}
