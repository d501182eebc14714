package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileVariant_Golden(t *testing.T) {
	q := New(
		KeyGenotype, "s1:0/1,1/1;s2:0/0",
		KeyChromosome, "13",
		KeyConsequenceType, "missense_variant",
	)

	stmt, err := CompileVariant(q, nil)
	require.NoError(t, err)

	want := strings.Join([]string{
		`MATCH (v:VARIANT)-[:VARIANT__CONSEQUENCE_TYPE]-(ct:CONSEQUENCE_TYPE)-[:CONSEQUENCE_TYPE__SO]-(so:SO)`,
		`WHERE v.chromosome = "13" AND (so.name IN ["missense_variant"] OR so.id IN ["missense_variant"])`,
		`WITH DISTINCT v`,
		`MATCH (s0:SAMPLE)-[:SAMPLE__VARIANT_CALL]-(vc0:VARIANT_CALL)-[:VARIANT__VARIANT_CALL]-(v:VARIANT)`,
		`WHERE s0.id = "s1" AND (vc0.GT = "0/1" OR vc0.GT = "1/1")`,
		`WITH DISTINCT v`,
		`MATCH (s1:SAMPLE)-[:SAMPLE__VARIANT_CALL]-(vc1:VARIANT_CALL)-[:VARIANT__VARIANT_CALL]-(v:VARIANT)`,
		`WHERE s1.id = "s2" AND (vc1.GT = "0/0")`,
		`RETURN DISTINCT v`,
	}, "\n")
	assert.Equal(t, want, stmt.Text)
	assert.Equal(t, []string{"v"}, stmt.Columns)
	assert.Equal(t, KindVariant, stmt.Kind)
}

func TestCompileVariant_ChromosomeOnly(t *testing.T) {
	stmt, err := CompileVariant(New(KeyChromosome, "X,Y"), nil)
	require.NoError(t, err)
	assert.Equal(t, "MATCH (v:VARIANT)\nWHERE v.chromosome IN [\"X\", \"Y\"]\nRETURN DISTINCT v", stmt.Text)
}

func TestCompileVariant_NoFilters(t *testing.T) {
	stmt, err := CompileVariant(&Query{}, New(OptLimit, 10))
	require.NoError(t, err)
	assert.Equal(t, "MATCH (v:VARIANT)\nRETURN DISTINCT v\nLIMIT 10", stmt.Text)
}

func TestCompileVariant_FragmentOrder(t *testing.T) {
	// Insertion order of the query must not affect emission order.
	q := New(
		KeyPopulationFrequencyAlt, "AFR<0.01",
		KeyGenotype, "p:0/1",
		KeyBiotype, "protein_coding",
		KeyConsequenceType, "stop_gained",
		KeyPanel, "cardiac",
		KeyChromosome, "1",
	)
	stmt, err := CompileVariant(q, nil)
	require.NoError(t, err)

	text := stmt.Text
	markers := []string{"panel.name IN", "so.name IN", "ct.biotype IN", "s0.id =", "EXISTS {"}
	last := -1
	for _, m := range markers {
		i := strings.Index(text, m)
		require.NotEqual(t, -1, i, "missing %q", m)
		assert.Greater(t, i, last, "%q out of order", m)
		last = i
	}
	assert.Equal(t, 1, strings.Count(text, "v.chromosome"))
	assert.True(t, strings.HasPrefix(text, "MATCH (panel:PANEL_GENE)"))
	assert.Contains(t, text, `WHERE v.chromosome = "1" AND panel.name IN ["cardiac"]`)
}

func TestCompileVariant_Deterministic(t *testing.T) {
	build := func() *Query {
		return New(
			KeyGene, []string{"BRCA2", "TP53"},
			KeyPanel, "hereditary_cancer",
			KeyGenotype, "a:0/1;b:0/0,0/1",
			KeyPopulationFrequencyAlt, "gnomad:NFE<0.001;AFR<0.01",
			KeyChromosome, "17",
		)
	}
	first, err := CompileVariant(build(), New(OptIncludeSamples, "a,b"))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := CompileVariant(build(), New(OptIncludeSamples, "a,b"))
		require.NoError(t, err)
		assert.Equal(t, first.Text, again.Text)
	}
}

func TestCompileVariant_PanelAndGeneUnion(t *testing.T) {
	base := func() *Query {
		return New(KeyChromosome, "2", KeyBiotype, "protein_coding")
	}
	both := base().Put(KeyPanel, "epilepsy").Put(KeyGene, "SCN1A")
	panelOnly := base().Put(KeyPanel, "epilepsy")
	geneOnly := base().Put(KeyGene, "SCN1A")

	stmt, err := CompileVariant(both, nil)
	require.NoError(t, err)
	p, err := CompileVariant(panelOnly, nil)
	require.NoError(t, err)
	g, err := CompileVariant(geneOnly, nil)
	require.NoError(t, err)

	assert.Equal(t, p.Text+"\nUNION\n"+g.Text, stmt.Text)
	assert.Equal(t, 1, strings.Count(stmt.Text, "UNION"))
}

func TestCompileVariant_UnionTailAppliesOnce(t *testing.T) {
	q := New(KeyPanel, "epilepsy", KeyGene, "SCN1A")
	tests := []struct {
		name    string
		opts    *QueryOptions
		tail    string
		columns []string
	}{
		{
			name:    "limit",
			opts:    New(OptLimit, 10),
			tail:    "\n}\nRETURN DISTINCT v\nLIMIT 10",
			columns: []string{"v"},
		},
		{
			name:    "samples",
			opts:    New(OptIncludeSamples, "s1", OptLimit, 5),
			tail:    "] AS genes\nLIMIT 5",
			columns: []string{"v", "calls", "genes"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := CompileVariant(q, tt.opts)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(stmt.Text, "CALL {\n"))
			assert.True(t, strings.HasSuffix(stmt.Text, tt.tail), stmt.Text)
			assert.Equal(t, 1, strings.Count(stmt.Text, "LIMIT"))
			assert.Equal(t, 1, strings.Count(stmt.Text, "UNION"))
			assert.Equal(t, tt.columns, stmt.Columns)
		})
	}
}

func TestCompileVariant_PopulationFrequencyOperators(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		operator string
	}{
		{"comma is OR", "AFR<0.01,EUR>0.5", " OR "},
		{"semicolon is AND", "AFR<0.01;EUR>0.5", " AND "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := CompileVariant(New(KeyPopulationFrequencyAlt, tt.expr), nil)
			require.NoError(t, err)

			afr := strings.Index(stmt.Text, `pf.population = "AFR"`)
			eur := strings.Index(stmt.Text, `pf.population = "EUR"`)
			require.True(t, afr >= 0 && eur > afr)

			between := stmt.Text[afr:eur]
			assert.Contains(t, between, "} "+strings.TrimSpace(tt.operator)+" EXISTS {")
			assert.Contains(t, stmt.Text, "toFloat(pf.altAlleleFreq) < 0.01")
			assert.Contains(t, stmt.Text, "toFloat(pf.altAlleleFreq) > 0.5")
		})
	}
}

func TestCompileVariant_GenotypeSemantics(t *testing.T) {
	stmt, err := CompileVariant(New(KeyGenotype, "s1:0/1,1/1;s2:0/0"), nil)
	require.NoError(t, err)

	assert.Contains(t, stmt.Text, `s0.id = "s1" AND (vc0.GT = "0/1" OR vc0.GT = "1/1")`)
	assert.Contains(t, stmt.Text, `s1.id = "s2" AND (vc1.GT = "0/0")`)
	// Separate MATCH fragments joined by WITH: both samples must match.
	assert.Equal(t, 2, strings.Count(stmt.Text, "MATCH (s"))
	assert.Equal(t, 1, strings.Count(stmt.Text, "WITH DISTINCT v"))
}

func TestCompileVariant_IncludeSamples(t *testing.T) {
	stmt, err := CompileVariant(New(KeyGenotype, "p:0/1"), New(OptIncludeSamples, "p,m,f"))
	require.NoError(t, err)

	assert.Equal(t, []string{"v", "calls", "genes"}, stmt.Columns)
	assert.Contains(t, stmt.Text, `WHERE s.id IN ["p", "m", "f"]`)
	assert.Contains(t, stmt.Text, "collect([s.id, vc.GT]) AS calls")
	assert.True(t, strings.HasSuffix(stmt.Text, "RETURN v, calls, [(v)-[:VARIANT__CONSEQUENCE_TYPE]-(ct:CONSEQUENCE_TYPE) | ct.geneName] AS genes"))

	_, err = CompileVariant(New(KeyGenotype, "p:0/1"), New(OptIncludeSamples, "p", OptInclude, "id"))
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestCompileVariant_Errors(t *testing.T) {
	tests := []struct {
		name string
		q    *Query
		want error
	}{
		{"unknown key", New("conservation", "phylop>2"), ErrUnsupportedFilter},
		{"node key in variant query", New(KeyNodeType, "GENE"), ErrUnsupportedFilter},
		{"bad popfreq comparator", New(KeyPopulationFrequencyAlt, "AFR<<0.1"), ErrInvalidFilterExpression},
		{"bad popfreq threshold", New(KeyPopulationFrequencyAlt, "AFR<abc"), ErrInvalidFilterExpression},
		{"mixed popfreq separators", New(KeyPopulationFrequencyAlt, "AFR<0.1,EUR>0.2;AMR<0.3"), ErrInvalidFilterExpression},
		{"bad genotype", New(KeyGenotype, "s1:het"), ErrInvalidFilterExpression},
		{"missing sample", New(KeyGenotype, ":0/1"), ErrInvalidFilterExpression},
		{"repeated sample", New(KeyGenotype, "s1:0/1;s1:1/1"), ErrInvalidFilterExpression},
		{"empty panel", New(KeyPanel, " , "), ErrInvalidFilterExpression},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := CompileVariant(tt.q, nil)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, stmt.Text)
		})
	}
}

func TestUnsupportedFilterError_As(t *testing.T) {
	_, err := CompileVariant(New("conservation", "x"), nil)
	var unsupported *UnsupportedFilterError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "conservation", unsupported.Key)
	assert.Equal(t, KindVariant, unsupported.Kind)
}
