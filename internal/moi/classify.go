package moi

import (
	"fmt"
	"sort"

	"github.com/systemshift/biograph/internal/model"
)

// VariantCalls is one returned variant with the genotype of every requested
// sample, keyed by sample id.
type VariantCalls struct {
	Variant *model.Node       `json:"variant"`
	Calls   map[string]string `json:"calls"`
	Genes   []string          `json:"genes,omitempty"`
}

// Zygosity of sample at this variant. Samples without a call are Missing.
func (v VariantCalls) Zygosity(sample string) Zygosity {
	gt, ok := v.Calls[sample]
	if !ok {
		return Missing
	}
	return Classify(gt)
}

// ParseVariantRows reads table rows with a "v" column and optional "calls"
// ([[sample, genotype], ...]) and "genes" columns.
func ParseVariantRows(columns []string, rows [][]any) ([]VariantCalls, error) {
	col := make(map[string]int, len(columns))
	for i, c := range columns {
		col[c] = i
	}
	vi, ok := col["v"]
	if !ok {
		return nil, fmt.Errorf("variant rows have no v column (columns %v)", columns)
	}

	out := make([]VariantCalls, 0, len(rows))
	for n, row := range rows {
		if vi >= len(row) {
			return nil, fmt.Errorf("row %d: %d columns, want %d", n, len(row), len(columns))
		}
		variant, ok := row[vi].(*model.Node)
		if !ok {
			return nil, fmt.Errorf("row %d: v is %T, want a node", n, row[vi])
		}
		vc := VariantCalls{Variant: variant, Calls: map[string]string{}}

		if ci, ok := col["calls"]; ok && ci < len(row) {
			calls, err := parseCalls(row[ci])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", n, err)
			}
			vc.Calls = calls
		}
		if gi, ok := col["genes"]; ok && gi < len(row) {
			vc.Genes = parseGenes(row[gi])
		}
		out = append(out, vc)
	}
	return out, nil
}

func parseCalls(v any) (map[string]string, error) {
	out := map[string]string{}
	if v == nil {
		return out, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("calls is %T, want a list", v)
	}
	for _, item := range list {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("call %v is not a [sample, genotype] pair", item)
		}
		// OPTIONAL MATCH without a hit yields [null, null].
		if pair[0] == nil {
			continue
		}
		sample, ok := pair[0].(string)
		if !ok {
			return nil, fmt.Errorf("call sample is %T, want a string", pair[0])
		}
		gt, _ := pair[1].(string)
		out[sample] = gt
	}
	return out, nil
}

func parseGenes(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, item := range list {
		g, ok := item.(string)
		if !ok || g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}

// FilterDeNovo keeps variants where the proband carries an alternate allele
// and both parents are homozygous reference. A missing parental call does
// not count as homozygous reference.
func FilterDeNovo(p *Pedigree, variants []VariantCalls) ([]VariantCalls, error) {
	proband, father, mother, err := trio(p)
	if err != nil {
		return nil, &NoSatisfiableGenotypesError{Pattern: DeNovo, Reason: err.Error()}
	}

	var out []VariantCalls
	for _, v := range variants {
		switch v.Zygosity(proband.Sample()) {
		case Het, HomAlt:
		default:
			continue
		}
		if v.Zygosity(father.Sample()) == HomRef && v.Zygosity(mother.Sample()) == HomRef {
			out = append(out, v)
		}
	}
	return out, nil
}

// GeneVariants groups compound heterozygous candidates of one gene by the
// parent they were inherited from.
type GeneVariants struct {
	Gene     string         `json:"gene"`
	Paternal []VariantCalls `json:"paternal"`
	Maternal []VariantCalls `json:"maternal"`
}

// FilterCompoundHeterozygous returns genes where the proband is heterozygous
// at one or more variants inherited from the father alone and one or more
// inherited from the mother alone. Genes are sorted by name.
func FilterCompoundHeterozygous(p *Pedigree, variants []VariantCalls) ([]GeneVariants, error) {
	proband, father, mother, err := trio(p)
	if err != nil {
		return nil, &NoSatisfiableGenotypesError{Pattern: CompoundHeterozygous, Reason: err.Error()}
	}

	byGene := make(map[string]*GeneVariants)
	for _, v := range variants {
		if v.Zygosity(proband.Sample()) != Het {
			continue
		}
		fz, mz := v.Zygosity(father.Sample()), v.Zygosity(mother.Sample())
		paternal := fz == Het && mz == HomRef
		maternal := mz == Het && fz == HomRef
		if !paternal && !maternal {
			continue
		}
		for _, g := range v.Genes {
			gv, ok := byGene[g]
			if !ok {
				gv = &GeneVariants{Gene: g}
				byGene[g] = gv
			}
			if paternal {
				gv.Paternal = append(gv.Paternal, v)
			} else {
				gv.Maternal = append(gv.Maternal, v)
			}
		}
	}

	var out []GeneVariants
	for _, gv := range byGene {
		if len(gv.Paternal) > 0 && len(gv.Maternal) > 0 {
			out = append(out, *gv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gene < out[j].Gene })
	return out, nil
}
