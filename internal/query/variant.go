package query

import (
	"fmt"
	"strings"

	"github.com/systemshift/biograph/internal/model"
)

// fragmentBuilder expands one filter value into match fragments bound to v.
type fragmentBuilder func(value any) ([]Fragment, error)

type variantFilter struct {
	key   string
	build fragmentBuilder
}

// variantFilters is the emission order of fragment-producing dimensions.
// Every recognized variant filter key is either listed here or folded into
// the first fragment (foldedFilters); anything else is rejected.
var variantFilters = []variantFilter{
	{KeyPanel, panelFragments},
	{KeyGene, geneFragments},
	{KeyConsequenceType, consequenceTypeFragments},
	{KeyBiotype, biotypeFragments},
	{KeyGenotype, genotypeFragments},
	{KeyPopulationFrequencyAlt, populationFrequencyFragments},
}

// foldedFilters are VARIANT properties tested inside whichever fragment is
// emitted first, in this order.
var foldedFilters = []string{KeyChromosome, KeyVariantID}

func isVariantFilter(key string) bool {
	for _, f := range variantFilters {
		if f.key == key {
			return true
		}
	}
	for _, k := range foldedFilters {
		if k == key {
			return true
		}
	}
	return false
}

func listFilter(key string, value any) ([]string, error) {
	list, err := toStringList(value)
	if err != nil {
		return nil, invalidExpr(key, fmt.Sprint(value), "%v", err)
	}
	if len(list) == 0 {
		return nil, invalidExpr(key, fmt.Sprint(value), "empty list")
	}
	return list, nil
}

// variantViaGene is the gene -> transcript -> consequence type -> variant path.
func variantViaGene() string {
	return pattern(
		node("g", model.Gene), model.RelGeneTranscript,
		node("t", model.Transcript), model.RelConsequenceTypeTranscript,
		node("ct", model.ConsequenceType), model.RelVariantConsequenceType,
		node("v", model.Variant),
	)
}

func panelFragments(value any) ([]Fragment, error) {
	panels, err := listFilter(KeyPanel, value)
	if err != nil {
		return nil, err
	}
	return []Fragment{{
		Match: pattern(node("panel", model.PanelGene), model.RelPanelGeneGene, variantViaGene()),
		Where: []string{property("panel", "name") + " IN " + stringList(panels)},
	}}, nil
}

func geneFragments(value any) ([]Fragment, error) {
	genes, err := listFilter(KeyGene, value)
	if err != nil {
		return nil, err
	}
	list := stringList(genes)
	return []Fragment{{
		Match: variantViaGene(),
		Where: []string{"(" + property("g", "name") + " IN " + list + " OR " + property("g", "id") + " IN " + list + ")"},
	}}, nil
}

func consequenceTypeFragments(value any) ([]Fragment, error) {
	terms, err := listFilter(KeyConsequenceType, value)
	if err != nil {
		return nil, err
	}
	return []Fragment{{
		Match: pattern(
			node("v", model.Variant), model.RelVariantConsequenceType,
			node("ct", model.ConsequenceType), model.RelConsequenceTypeSO,
			node("so", model.SequenceOntology),
		),
		Where: []string{"(" + property("so", "name") + " IN " + stringList(terms) + " OR " + property("so", "id") + " IN " + stringList(terms) + ")"},
	}}, nil
}

func biotypeFragments(value any) ([]Fragment, error) {
	biotypes, err := listFilter(KeyBiotype, value)
	if err != nil {
		return nil, err
	}
	return []Fragment{{
		Match: pattern(node("v", model.Variant), model.RelVariantConsequenceType, node("ct", model.ConsequenceType)),
		Where: []string{property("ct", "biotype") + " IN " + stringList(biotypes)},
	}}, nil
}

// variantFragments expands q into ordered fragments with folded property
// filters attached to the first one.
func variantFragments(q *Query) ([]Fragment, error) {
	for _, key := range q.Keys() {
		if !isVariantFilter(key) {
			return nil, &UnsupportedFilterError{Key: key, Kind: KindVariant}
		}
	}

	var folded []string
	for _, key := range foldedFilters {
		value, ok := q.Get(key)
		if !ok {
			continue
		}
		list, err := listFilter(key, value)
		if err != nil {
			return nil, err
		}
		if len(list) == 1 {
			folded = append(folded, property("v", key)+" = "+quote(list[0]))
		} else {
			folded = append(folded, property("v", key)+" IN "+stringList(list))
		}
	}

	var fragments []Fragment
	for _, f := range variantFilters {
		value, ok := q.Get(f.key)
		if !ok {
			continue
		}
		built, err := f.build(value)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, built...)
	}

	if len(fragments) == 0 {
		return []Fragment{{Match: node("v", model.Variant), Where: folded}}, nil
	}
	fragments[0].Where = append(folded, fragments[0].Where...)
	return fragments, nil
}

// variantReturn builds the tail after the last fragment.
func variantReturn(opts *QueryOptions) (string, []string, error) {
	samples := opts.List(OptIncludeSamples)
	if len(samples) == 0 {
		return returnClause("v", []string{"v"}, opts, true)
	}
	if opts.Has(OptInclude) {
		return "", nil, invalidOption(OptInclude, fmt.Errorf("cannot be combined with %s", OptIncludeSamples))
	}

	limit, err := limitSuffix(opts)
	if err != nil {
		return "", nil, err
	}
	calls := pattern(
		node("s", model.Sample), model.RelSampleVariantCall,
		node("vc", model.VariantCall), model.RelVariantVariantCall,
		"(v)",
	)
	genes := pattern("(v)", model.RelVariantConsequenceType, node("ct", model.ConsequenceType))
	lines := []string{
		"WITH DISTINCT v",
		"OPTIONAL MATCH " + calls,
		"WHERE " + property("s", "id") + " IN " + stringList(samples),
		"WITH v, collect([" + property("s", "id") + ", " + property("vc", GenotypeProperty) + "]) AS calls",
		"RETURN v, calls, [" + genes + " | " + property("ct", "geneName") + "] AS genes" + limit,
	}
	return strings.Join(lines, "\n"), []string{"v", "calls", "genes"}, nil
}

// CompileVariant compiles a variant query. Each filter dimension becomes an
// independent fragment chained through WITH DISTINCT v, in the order
// panel/gene, consequence type, biotype, genotype, population frequency.
// Chromosome and id are folded into the first fragment. When both panel and
// gene are given the panel-only and gene-only chains are unioned; any limit,
// projection or sample expansion then applies once to the combined rows.
func CompileVariant(q *Query, opts *QueryOptions) (Statement, error) {
	tail, columns, err := variantReturn(opts)
	if err != nil {
		return Statement{}, err
	}

	if q.Has(KeyPanel) && q.Has(KeyGene) {
		panelOnly := q.Clone()
		panelOnly.Delete(KeyGene)
		geneOnly := q.Clone()
		geneOnly.Delete(KeyPanel)

		const branchTail = "RETURN DISTINCT v"
		var parts []string
		for _, branch := range []*Query{panelOnly, geneOnly} {
			fragments, err := variantFragments(branch)
			if err != nil {
				return Statement{}, err
			}
			parts = append(parts, chain("v", fragments, branchTail))
		}
		text := union(parts)
		if tail != branchTail {
			text = "CALL {\n" + text + "\n}\n" + tail
		}
		return Statement{Kind: KindVariant, Text: text, Columns: columns}, nil
	}

	fragments, err := variantFragments(q)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Kind: KindVariant, Text: chain("v", fragments, tail), Columns: columns}, nil
}
