package moi

import (
	"fmt"

	"github.com/systemshift/biograph/internal/query"
)

// Inject returns a copy of q with genotypes merged into its genotype filter.
// Derived sets replace caller sets for the same sample. X and Y linked
// patterns also overwrite the chromosome filter.
func Inject(q *query.Query, genotypes map[string][]string, pattern Pattern) (*query.Query, error) {
	out := q.Clone()

	merged := make(map[string][]string, len(genotypes))
	if out.Has(query.KeyGenotype) {
		existing, _ := out.Get(query.KeyGenotype)
		expr, ok := existing.(string)
		if !ok {
			return nil, &query.InvalidFilterExpressionError{
				Key: query.KeyGenotype, Expr: fmt.Sprint(existing), Reason: "expected a string",
			}
		}
		parsed, err := ParseGenotypeMap(expr)
		if err != nil {
			return nil, err
		}
		for s, gts := range parsed {
			merged[s] = gts
		}
	}
	for s, gts := range genotypes {
		merged[s] = gts
	}
	if len(merged) > 0 {
		out.Put(query.KeyGenotype, FormatGenotypeMap(merged))
	}

	if chrom := pattern.Chromosome(); chrom != "" {
		out.Put(query.KeyChromosome, chrom)
	}
	return out, nil
}
