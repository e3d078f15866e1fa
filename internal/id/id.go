// Package id generates and parses entity identifiers.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns a fresh random identifier.
func New() uuid.UUID {
	return uuid.New()
}

// Parse parses an identifier string, accepting the canonical UUID form.
func Parse(s string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return u, nil
}

// Short returns the first 8 hex characters, for display.
func Short(u uuid.UUID) string {
	return u.String()[:8]
}
