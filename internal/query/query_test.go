package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_OrderPreserved(t *testing.T) {
	q := New("b", 1, "a", 2, "c", 3)
	q.Put("a", 20)
	assert.Equal(t, []string{"b", "a", "c"}, q.Keys())

	q.Delete("a")
	assert.Equal(t, []string{"b", "c"}, q.Keys())
	assert.False(t, q.Has("a"))

	c := q.Clone()
	c.Put("d", 4)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 3, c.Len())
}

func TestQuery_NilSafe(t *testing.T) {
	var q *Query
	assert.False(t, q.Has("x"))
	assert.Equal(t, "", q.String("x"))
	assert.Nil(t, q.Keys())
	n, err := q.Int("limit", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestQuery_JSONRoundTripKeepsOrder(t *testing.T) {
	raw := `{"z":"last-first","node.type":"GENE","limit":10,"score":0.25,"genes":["A","B"],"src-node":{"node.type":"GENE","name":"TP53"}}`

	var q Query
	require.NoError(t, json.Unmarshal([]byte(raw), &q))
	assert.Equal(t, []string{"z", "node.type", "limit", "score", "genes", "src-node"}, q.Keys())

	limit, _ := q.Get("limit")
	assert.Equal(t, int64(10), limit)
	score, _ := q.Get("score")
	assert.Equal(t, 0.25, score)
	assert.Equal(t, []string{"A", "B"}, q.List("genes"))

	nested, ok := q.Get("src-node")
	require.True(t, ok)
	require.IsType(t, &Query{}, nested)
	assert.Equal(t, "TP53", nested.(*Query).String("name"))

	out, err := json.Marshal(&q)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
	assert.Equal(t, raw, string(out))
}

func TestQuery_UnmarshalRejectsNonObject(t *testing.T) {
	var q Query
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &q))
}

func TestQuery_Int(t *testing.T) {
	q := New("a", "12", "b", 3.0, "c", 3.5, "d", "x")
	n, err := q.Int("a", 0)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	n, err = q.Int("b", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = q.Int("c", 0)
	assert.Error(t, err)
	_, err = q.Int("d", 0)
	assert.Error(t, err)
}

func TestParsePopulationFrequency(t *testing.T) {
	f, err := ParsePopulationFrequency("gnomad_genomes:AFR<=0.01,EUR!=1e-3")
	require.NoError(t, err)
	assert.Equal(t, "OR", f.Operator)
	require.Len(t, f.Clauses, 2)
	assert.Equal(t, PopulationClause{Study: "gnomad_genomes", Population: "AFR", Comparator: "<=", Threshold: 0.01}, f.Clauses[0])
	assert.Equal(t, PopulationClause{Population: "EUR", Comparator: "!=", Threshold: 0.001}, f.Clauses[1])

	f, err = ParsePopulationFrequency("ALL>0.05")
	require.NoError(t, err)
	assert.Len(t, f.Clauses, 1)

	for _, bad := range []string{"", "AFR", "AFR<", "<0.1", "AFR=>0.1", "AFR<0.1,", "AFR<0.1;EUR>0.2,AMR<1"} {
		_, err := ParsePopulationFrequency(bad)
		assert.ErrorIs(t, err, ErrInvalidFilterExpression, "expr %q", bad)
	}
}

func TestPopulationClause_NotEqualUsesCypherOperator(t *testing.T) {
	stmt, err := CompileVariant(New(KeyPopulationFrequencyAlt, "1kG:EUR!=0"), nil)
	require.NoError(t, err)
	assert.Contains(t, stmt.Text, `pf.study = "1kG" AND pf.population = "EUR" AND toFloat(pf.altAlleleFreq) <> 0`)
}

func TestParseGenotypeFilter(t *testing.T) {
	got, err := ParseGenotypeFilter("s1:0/1,1|1;s2:0/0")
	require.NoError(t, err)
	assert.Equal(t, []SampleGenotypes{
		{Sample: "s1", Genotypes: []string{"0/1", "1|1"}},
		{Sample: "s2", Genotypes: []string{"0/0"}},
	}, got)

	got, err = ParseGenotypeFilter("HG00096:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, got[0].Genotypes)
}

func TestFormatGenotypeFilter_Sorted(t *testing.T) {
	s := FormatGenotypeFilter(map[string][]string{
		"mother":  {"0/0", "0/1"},
		"child":   {"0/1"},
		"father2": {"1/1"},
	})
	assert.Equal(t, "child:0/1;father2:1/1;mother:0/0,0/1", s)

	parsed, err := ParseGenotypeFilter(s)
	require.NoError(t, err)
	assert.Len(t, parsed, 3)
}
