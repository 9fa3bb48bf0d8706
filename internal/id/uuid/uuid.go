// Package uuid generates run identifiers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates time-ordered UUID v7 run IDs, so run reports sort by start.
type Generator struct{}

// New creates a new Generator.
func New() Generator {
	return Generator{}
}

// NewRawID returns a UUID7.
func (Generator) NewRawID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate uuid7: %w", err)
	}
	return id, nil
}

// Static always returns the same ID.
type Static uuid.UUID

// NewRawID returns the wrapped ID.
func (s Static) NewRawID() (uuid.UUID, error) {
	return uuid.UUID(s), nil
}
