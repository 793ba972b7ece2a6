package id

import "github.com/google/uuid"

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

// Fixed always returns the same identifier. Used to keep logs stable in tests.
type Fixed string

func (f Fixed) New() string {
	return string(f)
}
