// Package enums holds the closed string sets stored in the database and
// exchanged over the API.
package enums

import (
	"fmt"
	"slices"
	"strings"
)

// parse matches value against valid after trimming and lower-casing it.
func parse[T ~string](kind, value string, valid []T) (T, error) {
	normalized := T(strings.ToLower(strings.TrimSpace(value)))
	if slices.Contains(valid, normalized) {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, value)
}
