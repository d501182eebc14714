package query

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/systemshift/biograph/internal/model"
)

// GenotypeProperty is the VARIANT_CALL property holding the called genotype.
const GenotypeProperty = "GT"

var genotypePattern = regexp.MustCompile(`^(\.|\d+)([/|](\.|\d+))*$`)

// SampleGenotypes is the set of genotypes one sample may carry.
type SampleGenotypes struct {
	Sample    string
	Genotypes []string
}

// ParseGenotypeFilter parses "s1:0/1,1/1;s2:0/0". Samples are separated by
// ";" (all must match) and genotypes by "," (any may match).
func ParseGenotypeFilter(expr string) ([]SampleGenotypes, error) {
	var out []SampleGenotypes
	seen := make(map[string]bool)

	for _, clause := range strings.Split(expr, ";") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			return nil, invalidExpr(KeyGenotype, expr, "empty sample clause")
		}
		i := strings.LastIndex(clause, ":")
		if i <= 0 || i == len(clause)-1 {
			return nil, invalidExpr(KeyGenotype, expr, "clause %q is not sample:genotypes", clause)
		}
		sample := strings.TrimSpace(clause[:i])
		if seen[sample] {
			return nil, invalidExpr(KeyGenotype, expr, "sample %q listed twice", sample)
		}
		seen[sample] = true

		sg := SampleGenotypes{Sample: sample}
		for _, gt := range strings.Split(clause[i+1:], ",") {
			gt = strings.TrimSpace(gt)
			if !genotypePattern.MatchString(gt) {
				return nil, invalidExpr(KeyGenotype, expr, "bad genotype %q for sample %q", gt, sample)
			}
			sg.Genotypes = append(sg.Genotypes, gt)
		}
		out = append(out, sg)
	}
	return out, nil
}

// FormatGenotypeFilter renders sample genotype sets in filter syntax, samples
// sorted by name so the output is stable.
func FormatGenotypeFilter(m map[string][]string) string {
	samples := make([]string, 0, len(m))
	for s := range m {
		samples = append(samples, s)
	}
	sort.Strings(samples)

	clauses := make([]string, 0, len(samples))
	for _, s := range samples {
		clauses = append(clauses, s+":"+strings.Join(m[s], ","))
	}
	return strings.Join(clauses, ";")
}

// genotypeFragments emits one MATCH per sample. Genotypes of a sample are
// ORed; the chain between fragments ANDs the samples.
func genotypeFragments(value any) ([]Fragment, error) {
	expr, ok := value.(string)
	if !ok {
		return nil, invalidExpr(KeyGenotype, "", "expected a string, got %T", value)
	}
	samples, err := ParseGenotypeFilter(expr)
	if err != nil {
		return nil, err
	}

	fragments := make([]Fragment, 0, len(samples))
	for i, sg := range samples {
		s := "s" + strconv.Itoa(i)
		vc := "vc" + strconv.Itoa(i)
		ors := make([]string, len(sg.Genotypes))
		for j, gt := range sg.Genotypes {
			ors[j] = property(vc, GenotypeProperty) + " = " + quote(gt)
		}
		fragments = append(fragments, Fragment{
			Match: pattern(
				node(s, model.Sample), model.RelSampleVariantCall,
				node(vc, model.VariantCall), model.RelVariantVariantCall,
				node("v", model.Variant),
			),
			Where: []string{
				property(s, "id") + " = " + quote(sg.Sample),
				"(" + strings.Join(ors, " OR ") + ")",
			},
		})
	}
	return fragments, nil
}
