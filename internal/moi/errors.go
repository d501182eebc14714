package moi

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSatisfiableGenotypes is returned when derivation leaves no
	// constrainable sample.
	ErrNoSatisfiableGenotypes = errors.New("no satisfiable genotypes")

	ErrUnknownPattern  = errors.New("unknown inheritance pattern")
	ErrInvalidPedigree = errors.New("invalid pedigree")
)

// NoSatisfiableGenotypesError reports the pattern and disorder that could not
// be turned into a genotype filter.
type NoSatisfiableGenotypesError struct {
	Pattern  Pattern
	Disorder string
	Reason   string
}

func (e *NoSatisfiableGenotypesError) Error() string {
	return fmt.Sprintf("no satisfiable genotypes for %s (disorder %q): %s", e.Pattern, e.Disorder, e.Reason)
}

func (e *NoSatisfiableGenotypesError) Is(target error) bool {
	return target == ErrNoSatisfiableGenotypes
}
