package moi

import (
	"fmt"
)

// DeriveGenotypes maps each constrained sample to the genotypes it may carry
// under pattern. Members with unknown affectation and members unrelated to
// the proband (or to the affected members when no proband is set) are left
// out, as is any sample whose set would be empty.
func DeriveGenotypes(p *Pedigree, disorder string, pattern Pattern, penetrance Penetrance) (map[string][]string, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil pedigree", ErrInvalidPedigree)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if penetrance == "" {
		penetrance = PenetranceComplete
	}
	unsatisfiable := func(format string, args ...any) error {
		return &NoSatisfiableGenotypesError{Pattern: pattern, Disorder: disorder, Reason: fmt.Sprintf(format, args...)}
	}

	switch pattern {
	case DeNovo, CompoundHeterozygous:
		proband, _, _, err := trio(p)
		if err != nil {
			return nil, unsatisfiable("%v", err)
		}
		if pattern == DeNovo {
			return map[string][]string{proband.Sample(): union(het, homAlt, haploidAlt)}, nil
		}
		return map[string][]string{proband.Sample(): union(het)}, nil
	case AutosomalDominant, AutosomalRecessive, XLinkedDominant, XLinkedRecessive, YLinked:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, pattern)
	}

	incomplete := penetrance == PenetranceIncomplete
	out := make(map[string][]string)
	affected := 0
	for _, m := range p.related(disorder) {
		var set []string
		switch m.Status(disorder) {
		case StatusAffected:
			affected++
			set = affectedGenotypes(pattern, m)
		case StatusUnaffected:
			set = unaffectedGenotypes(p, disorder, pattern, m, incomplete)
		default:
			continue
		}
		if len(set) > 0 {
			out[m.Sample()] = set
		}
	}

	if affected == 0 {
		return nil, unsatisfiable("no related member is affected")
	}
	if len(out) == 0 {
		return nil, unsatisfiable("no member can carry a genotype compatible with the pattern")
	}
	return out, nil
}

func affectedGenotypes(pattern Pattern, m *Individual) []string {
	sex := m.sex()
	switch pattern {
	case AutosomalDominant:
		return union(het)
	case AutosomalRecessive:
		return union(homAlt)
	case XLinkedDominant:
		switch sex {
		case SexMale:
			return union(haploidAlt, homAlt)
		case SexFemale:
			return union(het, homAlt)
		}
		return union(het, homAlt, haploidAlt)
	case XLinkedRecessive:
		switch sex {
		case SexMale:
			return union(haploidAlt, homAlt)
		case SexFemale:
			return union(homAlt)
		}
		return union(homAlt, haploidAlt)
	case YLinked:
		if sex == SexFemale {
			return nil
		}
		return union(haploidAlt, homAlt)
	}
	return nil
}

func unaffectedGenotypes(p *Pedigree, disorder string, pattern Pattern, m *Individual, incomplete bool) []string {
	sex := m.sex()
	switch pattern {
	case AutosomalDominant:
		if incomplete {
			return union(homRef, het)
		}
		return union(homRef)

	case AutosomalRecessive:
		if hasAffectedChild(p, m, disorder, "") {
			if incomplete {
				return union(het, homAlt)
			}
			return union(het)
		}
		if incomplete {
			return union(homRef, het, homAlt)
		}
		return union(homRef, het)

	case XLinkedDominant:
		var set []string
		switch sex {
		case SexMale:
			set = union(haploidRef, homRef)
			if incomplete {
				set = union(set, haploidAlt, homAlt)
			}
		case SexFemale:
			set = union(homRef)
			if incomplete {
				set = union(set, het)
			}
		default:
			set = union(homRef, haploidRef)
			if incomplete {
				set = union(set, het, haploidAlt)
			}
		}
		return set

	case XLinkedRecessive:
		switch sex {
		case SexMale:
			if incomplete {
				return union(haploidRef, homRef, haploidAlt, homAlt)
			}
			return union(haploidRef, homRef)
		case SexFemale:
			// Mothers of affected sons and daughters of affected fathers carry the allele.
			father := p.Father(m)
			if hasAffectedChild(p, m, disorder, SexMale) || (father != nil && father.Status(disorder) == StatusAffected) {
				if incomplete {
					return union(het, homAlt)
				}
				return union(het)
			}
			if incomplete {
				return union(homRef, het, homAlt)
			}
			return union(homRef, het)
		}
		if incomplete {
			return union(homRef, het, haploidRef, homAlt, haploidAlt)
		}
		return union(homRef, het, haploidRef)

	case YLinked:
		if sex == SexFemale {
			return nil
		}
		if incomplete {
			return union(haploidRef, homRef, haploidAlt, homAlt)
		}
		return union(haploidRef, homRef)
	}
	return nil
}

// hasAffectedChild reports whether m has a child affected by disorder,
// restricted to children of sex when sex is set.
func hasAffectedChild(p *Pedigree, m *Individual, disorder string, sex Sex) bool {
	for _, c := range p.Children(m) {
		if sex != "" && c.sex() != sex {
			continue
		}
		if c.Status(disorder) == StatusAffected {
			return true
		}
	}
	return false
}

// trio returns the proband and both parents.
func trio(p *Pedigree) (proband, father, mother *Individual, err error) {
	proband = p.ProbandMember()
	if proband == nil {
		return nil, nil, nil, fmt.Errorf("pedigree %q has no proband", p.ID)
	}
	father, mother = p.Father(proband), p.Mother(proband)
	if father == nil || mother == nil {
		return nil, nil, nil, fmt.Errorf("proband %q needs both parents in the pedigree", proband.ID)
	}
	return proband, father, mother, nil
}
