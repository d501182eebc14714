package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemshift/biograph/internal/model"
)

func TestCompileNode(t *testing.T) {
	tests := []struct {
		name string
		q    *Query
		opts *QueryOptions
		want string
	}{
		{
			name: "type and attributes",
			q:    New(KeyNodeType, "GENE", "name", "BRCA2", "start", ">32315474"),
			want: "MATCH (n:GENE)\nWHERE n.name = \"BRCA2\" AND n.start > 32315474\nRETURN n",
		},
		{
			name: "uid as string is numeric",
			q:    New(KeyNodeUID, "42"),
			want: "MATCH (n)\nWHERE n.uid = 42\nRETURN n",
		},
		{
			name: "typed numbers are unquoted and text is quoted",
			q:    New(KeyNodeID, "ENSG00000139618", "strand", int64(1), "score", 0.5, "chromosome", "13"),
			want: "MATCH (n)\nWHERE n.id = \"ENSG00000139618\" AND n.strand = 1 AND n.score = 0.5 AND n.chromosome = \"13\"\nRETURN n",
		},
		{
			name: "operators kept verbatim",
			q:    New("name", "!TP53", "biotypeRank", "<=3", "source", "=ensembl"),
			want: "MATCH (n)\nWHERE n.name <> \"TP53\" AND n.biotypeRank <= 3 AND n.source = \"ensembl\"\nRETURN n",
		},
		{
			name: "list becomes IN",
			q:    New(KeyNodeType, "protein", KeyNodeName, []string{"P1", "P2"}),
			want: "MATCH (n:PROTEIN)\nWHERE n.name IN [\"P1\", \"P2\"]\nRETURN n",
		},
		{
			name: "projection and limit",
			q:    New(KeyNodeType, "GENE"),
			opts: New(OptInclude, "id,name", OptLimit, "5"),
			want: "MATCH (n:GENE)\nRETURN n.id AS id, n.name AS name\nLIMIT 5",
		},
		{
			name: "odd property names are quoted",
			q:    New("attr_GT", "0/1", "alt allele", "A\"C"),
			want: "MATCH (n)\nWHERE n.attr_GT = \"0/1\" AND n.`alt allele` = \"A\\\"C\"\nRETURN n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := CompileNode(tt.q, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stmt.Text)
			assert.Equal(t, KindNode, stmt.Kind)
		})
	}
}

func TestCompileNode_Columns(t *testing.T) {
	stmt, err := CompileNode(New(KeyNodeType, "GENE"), New(OptInclude, "id,name"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, stmt.Columns)

	stmt, err = CompileNode(New(KeyNodeType, "GENE"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"n"}, stmt.Columns)
}

func TestCompileNode_Errors(t *testing.T) {
	tests := []struct {
		name string
		q    *Query
		opts *QueryOptions
		want error
	}{
		{"pseudo attribute biotype", New(KeyNodeType, "GENE", KeyBiotype, "protein_coding"), nil, ErrUnsupportedFilter},
		{"pseudo attribute population", New(KeyPopulationFrequencyAlt, "AFR<0.1"), nil, ErrUnsupportedFilter},
		{"unknown node type", New(KeyNodeType, "GENES"), nil, ErrInvalidFilterExpression},
		{"non-numeric uid", New(KeyNodeUID, "abc"), nil, ErrInvalidFilterExpression},
		{"missing operand", New("start", ">"), nil, ErrInvalidFilterExpression},
		{"bad output", New(KeyNodeType, "GENE"), New(OptOutput, "path"), ErrInvalidOption},
		{"negative limit", New(KeyNodeType, "GENE"), New(OptLimit, -1), ErrInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileNode(tt.q, tt.opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCompilePath(t *testing.T) {
	src := New(KeyNodeType, "GENE", "name", "BRCA2")
	dest := New(KeyNodeType, "PROTEIN")

	stmt, err := CompilePath(src, dest, nil)
	require.NoError(t, err)
	assert.Equal(t, "MATCH path = (n1:GENE)-[*1..2]-(n2:PROTEIN)\nWHERE n1.name = \"BRCA2\"\nRETURN path", stmt.Text)
	assert.Equal(t, []string{"path"}, stmt.Columns)

	stmt, err = CompilePath(src, New(KeyNodeType, "PATHWAY", KeyNodeID, "R-HSA-1"), New(OptMaxJumps, 4))
	require.NoError(t, err)
	assert.Equal(t, "MATCH path = (n1:GENE)-[*1..4]-(n2:PATHWAY)\nWHERE n1.name = \"BRCA2\" AND n2.id = \"R-HSA-1\"\nRETURN path", stmt.Text)

	_, err = CompilePath(src, dest, New(OptMaxJumps, 0))
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = CompilePath(src, New(KeyGenotype, "s:0/1"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedFilter)
}

func TestPathFromQuery(t *testing.T) {
	q := New(KeySrcNode, New(KeyNodeType, "GENE", "name", "TP53"), KeyDestNode, "PROTEIN")
	src, dest, err := PathFromQuery(q)
	require.NoError(t, err)
	assert.Equal(t, "TP53", src.String("name"))
	assert.Equal(t, "PROTEIN", dest.String(KeyNodeType))

	_, _, err = PathFromQuery(New(KeySrcNode, "GENE", "extra", "x"))
	assert.ErrorIs(t, err, ErrUnsupportedFilter)

	_, _, err = PathFromQuery(New(KeySrcNode, 12))
	assert.ErrorIs(t, err, ErrInvalidFilterExpression)
}

func TestCompileNetwork(t *testing.T) {
	types := []model.NodeType{model.Gene, model.Protein, model.Pathway, model.Complex}
	stmt, err := CompileNetwork(types, New(OptMaxJumps, 3))
	require.NoError(t, err)

	parts := strings.Split(stmt.Text, "\nUNION\n")
	require.Len(t, parts, 6)
	assert.Equal(t, "MATCH path = (n1:GENE)-[*1..3]-(n2:PROTEIN)\nRETURN path", parts[0])
	assert.Equal(t, "MATCH path = (n1:PATHWAY)-[*1..3]-(n2:COMPLEX)\nRETURN path", parts[5])
	assert.Equal(t, KindNetwork, stmt.Kind)

	_, err = CompileNetwork([]model.NodeType{model.Gene}, nil)
	assert.ErrorIs(t, err, ErrInvalidOption)

	_, err = CompileNetwork([]model.NodeType{model.Gene, "NOPE"}, nil)
	assert.ErrorIs(t, err, ErrInvalidFilterExpression)
}
