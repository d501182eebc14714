package moi

import (
	"fmt"
	"strings"
)

// Pattern is a mode of inheritance.
type Pattern string

const (
	AutosomalDominant    Pattern = "AUTOSOMAL_DOMINANT"
	AutosomalRecessive   Pattern = "AUTOSOMAL_RECESSIVE"
	XLinkedDominant      Pattern = "X_LINKED_DOMINANT"
	XLinkedRecessive     Pattern = "X_LINKED_RECESSIVE"
	YLinked              Pattern = "Y_LINKED"
	DeNovo               Pattern = "DE_NOVO"
	CompoundHeterozygous Pattern = "COMPOUND_HETEROZYGOUS"
)

var patterns = []Pattern{
	AutosomalDominant, AutosomalRecessive, XLinkedDominant, XLinkedRecessive,
	YLinked, DeNovo, CompoundHeterozygous,
}

// Patterns lists every supported pattern.
func Patterns() []Pattern {
	return append([]Pattern(nil), patterns...)
}

// ParsePattern accepts pattern names case-insensitively, with "-" or " "
// in place of "_".
func ParsePattern(s string) (Pattern, error) {
	norm := strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s)))
	for _, p := range patterns {
		if string(p) == norm {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPattern, s)
}

func (p Pattern) String() string { return string(p) }

// Chromosome is the chromosome the pattern fixes, or "".
func (p Pattern) Chromosome() string {
	switch p {
	case XLinkedDominant, XLinkedRecessive:
		return "X"
	case YLinked:
		return "Y"
	}
	return ""
}

// NeedsClassification reports whether matches must be compared across
// samples after the query runs.
func (p Pattern) NeedsClassification() bool {
	return p == DeNovo || p == CompoundHeterozygous
}

// Penetrance of the disorder.
type Penetrance string

const (
	PenetranceComplete   Penetrance = "COMPLETE"
	PenetranceIncomplete Penetrance = "INCOMPLETE"
)

// ParsePenetrance defaults to complete when s is empty.
func ParsePenetrance(s string) (Penetrance, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(PenetranceComplete):
		return PenetranceComplete, nil
	case string(PenetranceIncomplete):
		return PenetranceIncomplete, nil
	}
	return "", fmt.Errorf("unknown penetrance %q", s)
}
