package domain

import "strings"

// ParseScope splits a space or comma delimited scope string, dropping
// duplicates and empty items while keeping order.
func ParseScope(scope string) []string {
	fields := strings.FieldsFunc(scope, func(r rune) bool {
		return r == ' ' || r == ','
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// JoinScope renders scopes in their canonical space delimited form
func JoinScope(scopes []string) string {
	return strings.Join(scopes, " ")
}

// ScopeSubset reports whether every scope in requested is present in allowed
func ScopeSubset(requested, allowed string) bool {
	allowedSet := make(map[string]struct{})
	for _, s := range ParseScope(allowed) {
		allowedSet[s] = struct{}{}
	}
	for _, s := range ParseScope(requested) {
		if _, ok := allowedSet[s]; !ok {
			return false
		}
	}
	return true
}
