package moi

import (
	"strings"

	"github.com/systemshift/biograph/internal/query"
)

// Zygosity is the class of a called genotype.
type Zygosity int

const (
	Missing Zygosity = iota
	HomRef
	Het
	HomAlt
)

func (z Zygosity) String() string {
	switch z {
	case HomRef:
		return "HOM_REF"
	case Het:
		return "HET"
	case HomAlt:
		return "HOM_ALT"
	}
	return "MISSING"
}

// Classify returns the zygosity of gt. Haploid calls are hom-ref or hom-alt;
// any missing allele makes the call missing.
func Classify(gt string) Zygosity {
	gt = strings.TrimSpace(gt)
	if gt == "" {
		return Missing
	}
	alleles := strings.FieldsFunc(gt, func(r rune) bool { return r == '/' || r == '|' })
	if len(alleles) == 0 {
		return Missing
	}
	ref, alt := 0, 0
	for _, a := range alleles {
		switch a {
		case ".":
			return Missing
		case "0":
			ref++
		default:
			alt++
		}
	}
	switch {
	case alt == 0:
		return HomRef
	case ref == 0:
		return HomAlt
	}
	return Het
}

// Genotype sets used by derivation. Phased forms sit next to their unphased
// counterparts.
var (
	homRef     = []string{"0/0", "0|0"}
	het        = []string{"0/1", "0|1", "1|0"}
	homAlt     = []string{"1/1", "1|1"}
	haploidRef = []string{"0"}
	haploidAlt = []string{"1"}
)

func union(sets ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, set := range sets {
		for _, gt := range set {
			if !seen[gt] {
				seen[gt] = true
				out = append(out, gt)
			}
		}
	}
	return out
}

// ParseGenotypeMap parses genotype filter syntax into a sample map.
func ParseGenotypeMap(expr string) (map[string][]string, error) {
	parsed, err := query.ParseGenotypeFilter(expr)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(parsed))
	for _, sg := range parsed {
		out[sg.Sample] = sg.Genotypes
	}
	return out, nil
}

// FormatGenotypeMap renders m in genotype filter syntax, samples sorted.
func FormatGenotypeMap(m map[string][]string) string {
	return query.FormatGenotypeFilter(m)
}
