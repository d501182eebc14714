// Package moi derives per-sample genotype constraints from a pedigree and a
// mode of inheritance, injects them into variant queries and classifies
// returned variants that need cross-sample comparison.
package moi

import (
	"fmt"
	"sort"
	"strings"
)

// Sex of an individual.
type Sex string

const (
	SexUnknown Sex = "UNKNOWN"
	SexMale    Sex = "MALE"
	SexFemale  Sex = "FEMALE"
)

// AffectationStatus of an individual for one disorder.
type AffectationStatus string

const (
	StatusUnknown    AffectationStatus = "UNKNOWN"
	StatusAffected   AffectationStatus = "AFFECTED"
	StatusUnaffected AffectationStatus = "UNAFFECTED"
)

// Individual is one pedigree member.
type Individual struct {
	ID       string `json:"id" yaml:"id"`
	SampleID string `json:"sampleId,omitempty" yaml:"sampleId,omitempty"`
	Sex      Sex    `json:"sex,omitempty" yaml:"sex,omitempty"`
	FatherID string `json:"fatherId,omitempty" yaml:"fatherId,omitempty"`
	MotherID string `json:"motherId,omitempty" yaml:"motherId,omitempty"`

	// Disorders maps disorder id to status. A disorder that is not listed
	// means the individual is unaffected by it.
	Disorders map[string]AffectationStatus `json:"disorders,omitempty" yaml:"disorders,omitempty"`
}

// sampleSeparators delimit entries in genotype filter syntax and cannot
// appear in a sample id.
const sampleSeparators = ",;:"

// Sample returns the sample id used in genotype filters.
func (i *Individual) Sample() string {
	if i.SampleID != "" {
		return i.SampleID
	}
	return i.ID
}

// Status returns the affectation status for disorder.
func (i *Individual) Status(disorder string) AffectationStatus {
	s, ok := i.Disorders[disorder]
	if !ok || s == "" {
		return StatusUnaffected
	}
	return AffectationStatus(strings.ToUpper(string(s)))
}

func (i *Individual) sex() Sex {
	switch Sex(strings.ToUpper(string(i.Sex))) {
	case SexMale:
		return SexMale
	case SexFemale:
		return SexFemale
	}
	return SexUnknown
}

// Pedigree is a family of individuals linked by parent ids.
type Pedigree struct {
	ID      string        `json:"id" yaml:"id"`
	Proband string        `json:"proband,omitempty" yaml:"proband,omitempty"`
	Members []*Individual `json:"members" yaml:"members"`
}

// Member returns the individual with id, or nil.
func (p *Pedigree) Member(id string) *Individual {
	if id == "" {
		return nil
	}
	for _, m := range p.Members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Father returns i's father, or nil.
func (p *Pedigree) Father(i *Individual) *Individual { return p.Member(i.FatherID) }

// Mother returns i's mother, or nil.
func (p *Pedigree) Mother(i *Individual) *Individual { return p.Member(i.MotherID) }

// Children returns the members listing i as a parent.
func (p *Pedigree) Children(i *Individual) []*Individual {
	var out []*Individual
	for _, m := range p.Members {
		if m.FatherID == i.ID || m.MotherID == i.ID {
			out = append(out, m)
		}
	}
	return out
}

// ProbandMember returns the proband, or nil when none is set.
func (p *Pedigree) ProbandMember() *Individual {
	return p.Member(p.Proband)
}

// Validate checks member ids, parent references and parent sexes.
func (p *Pedigree) Validate() error {
	if len(p.Members) == 0 {
		return fmt.Errorf("%w: no members", ErrInvalidPedigree)
	}
	ids := make(map[string]bool, len(p.Members))
	samples := make(map[string]bool, len(p.Members))
	for _, m := range p.Members {
		if m.ID == "" {
			return fmt.Errorf("%w: member without id", ErrInvalidPedigree)
		}
		if ids[m.ID] {
			return fmt.Errorf("%w: member %q listed twice", ErrInvalidPedigree, m.ID)
		}
		ids[m.ID] = true
		if strings.ContainsAny(m.Sample(), sampleSeparators) {
			return fmt.Errorf("%w: sample %q contains one of %q", ErrInvalidPedigree, m.Sample(), sampleSeparators)
		}
		if samples[m.Sample()] {
			return fmt.Errorf("%w: sample %q used twice", ErrInvalidPedigree, m.Sample())
		}
		samples[m.Sample()] = true
	}
	for _, m := range p.Members {
		if m.FatherID == m.ID || m.MotherID == m.ID {
			return fmt.Errorf("%w: %q is its own parent", ErrInvalidPedigree, m.ID)
		}
		if m.FatherID != "" {
			f := p.Member(m.FatherID)
			if f == nil {
				return fmt.Errorf("%w: father %q of %q not in pedigree", ErrInvalidPedigree, m.FatherID, m.ID)
			}
			if f.sex() == SexFemale {
				return fmt.Errorf("%w: father %q of %q is female", ErrInvalidPedigree, f.ID, m.ID)
			}
		}
		if m.MotherID != "" {
			mo := p.Member(m.MotherID)
			if mo == nil {
				return fmt.Errorf("%w: mother %q of %q not in pedigree", ErrInvalidPedigree, m.MotherID, m.ID)
			}
			if mo.sex() == SexMale {
				return fmt.Errorf("%w: mother %q of %q is male", ErrInvalidPedigree, mo.ID, m.ID)
			}
		}
	}
	if p.Proband != "" && p.Member(p.Proband) == nil {
		return fmt.Errorf("%w: proband %q not in pedigree", ErrInvalidPedigree, p.Proband)
	}
	return nil
}

// related returns the members connected by parent links to the proband, or
// to any member affected by disorder when no proband is set.
func (p *Pedigree) related(disorder string) []*Individual {
	var seeds []*Individual
	if proband := p.ProbandMember(); proband != nil {
		seeds = append(seeds, proband)
	} else {
		for _, m := range p.Members {
			if m.Status(disorder) == StatusAffected {
				seeds = append(seeds, m)
			}
		}
	}

	seen := make(map[string]bool)
	queue := seeds
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur.ID] {
			continue
		}
		seen[cur.ID] = true
		for _, next := range append(p.Children(cur), p.Father(cur), p.Mother(cur)) {
			if next != nil && !seen[next.ID] {
				queue = append(queue, next)
			}
		}
	}

	out := make([]*Individual, 0, len(seen))
	for _, m := range p.Members {
		if seen[m.ID] {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sample() < out[j].Sample() })
	return out
}
