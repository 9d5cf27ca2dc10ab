// Package normalize canonicalizes user-submitted text fields before they
// are compared or stored. Names must be unique after normalization.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Name strips surrounding whitespace and decomposes the string into
// Unicode Normalization Form D.
func Name(s string) string {
	return norm.NFD.String(strings.TrimSpace(s))
}

// Optional normalizes a nullable field, mapping empty results to nil.
func Optional(s *string) *string {
	if s == nil {
		return nil
	}
	n := Name(*s)
	if n == "" {
		return nil
	}
	return &n
}
