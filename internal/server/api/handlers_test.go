package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systemshift/biograph/internal/model"
	"github.com/systemshift/biograph/internal/query"
	"github.com/systemshift/biograph/internal/server/graph"
)

// MockRepository records statements and returns canned results
type MockRepository struct {
	statements []query.Statement
	nodes      []*model.Node
	paths      []*model.Network
	rows       [][]any
	err        error
	pingErr    error
}

func (m *MockRepository) Nodes(ctx context.Context, stmt query.Statement) (*graph.QueryResult[*model.Node], error) {
	m.statements = append(m.statements, stmt)
	if m.err != nil {
		return nil, m.err
	}
	return &graph.QueryResult[*model.Node]{ID: "q1", ResultCount: len(m.nodes), Results: m.nodes}, nil
}

func (m *MockRepository) Paths(ctx context.Context, stmt query.Statement) (*graph.QueryResult[*model.Network], error) {
	m.statements = append(m.statements, stmt)
	if m.err != nil {
		return nil, m.err
	}
	return &graph.QueryResult[*model.Network]{ID: "q2", ResultCount: len(m.paths), Results: m.paths}, nil
}

func (m *MockRepository) Table(ctx context.Context, stmt query.Statement) (*graph.QueryResult[[]any], error) {
	m.statements = append(m.statements, stmt)
	if m.err != nil {
		return nil, m.err
	}
	return &graph.QueryResult[[]any]{ID: "q3", ResultCount: len(m.rows), Results: m.rows}, nil
}

func (m *MockRepository) Close(ctx context.Context) error         { return nil }
func (m *MockRepository) Ping(ctx context.Context) error          { return m.pingErr }
func (m *MockRepository) EnsureIndexes(ctx context.Context) error { return nil }

func (m *MockRepository) Load(ctx context.Context, network *model.Network, batchSize int) (graph.LoadStats, error) {
	return graph.LoadStats{Nodes: len(network.Nodes), Relations: len(network.Relations)}, nil
}

// Helper to create a test server with routes
func setupTestServer(t *testing.T, repo *MockRepository) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	New(repo, nil).Register(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestHealthCheck(t *testing.T) {
	repo := &MockRepository{}
	ts := setupTestServer(t, repo)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	repo.pingErr = errors.New("down")
	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestQueryNodes(t *testing.T) {
	repo := &MockRepository{nodes: []*model.Node{model.NewNode(1, model.Gene, "ENSG00000139618", "BRCA2")}}
	ts := setupTestServer(t, repo)

	resp, body := post(t, ts, "/api/query/nodes", `{"query":{"node.type":"GENE","name":"BRCA2"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var res graph.QueryResult[*model.Node]
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, 1, res.ResultCount)
	assert.Equal(t, "BRCA2", res.Results[0].Name)

	require.Len(t, repo.statements, 1)
	assert.Equal(t, "MATCH (n:GENE)\nWHERE n.name = \"BRCA2\"\nRETURN n", repo.statements[0].Text)
}

func TestQueryNodes_ProjectionUsesTable(t *testing.T) {
	repo := &MockRepository{rows: [][]any{{"ENSG1", "BRCA2"}}}
	ts := setupTestServer(t, repo)

	resp, body := post(t, ts, "/api/query/nodes", `{"query":{"node.type":"GENE"},"options":{"include":"id,name"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var res TableResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Equal(t, "q3", res.ID)
}

func TestQueryPathsAndNetwork(t *testing.T) {
	repo := &MockRepository{}
	ts := setupTestServer(t, repo)

	resp, body := post(t, ts, "/api/query/paths", `{"query":{"src-node":{"node.type":"GENE","name":"TP53"},"dest-node":"PATHWAY"},"options":{"max-jumps":3}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, repo.statements[0].Text, "-[*1..3]-(n2:PATHWAY)")

	resp, body = post(t, ts, "/api/query/network", `{"types":["GENE","PROTEIN","PATHWAY"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, 2, strings.Count(repo.statements[1].Text, "UNION"))
}

func TestQueryVariants_IncludeSamples(t *testing.T) {
	repo := &MockRepository{rows: [][]any{}}
	ts := setupTestServer(t, repo)

	resp, body := post(t, ts, "/api/query/variants", `{"query":{"genotype":"p:0/1","chromosome":"2"},"options":{"include-samples":"p,f,m"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, []string{"v", "calls", "genes"}, repo.statements[0].Columns)
}

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"invalid json", "/api/query/nodes", `{invalid`, http.StatusBadRequest},
		{"missing query", "/api/query/nodes", `{}`, http.StatusBadRequest},
		{"one network type", "/api/query/network", `{"types":["GENE"]}`, http.StatusBadRequest},
		{"bad popfreq", "/api/query/variants", `{"query":{"populationFrequencyAlt":"AFR<<1"}}`, http.StatusBadRequest},
		{"unsupported filter", "/api/query/variants", `{"query":{"conservation":"gerp>2"}}`, http.StatusUnprocessableEntity},
		{"unknown node type", "/api/query/network", `{"types":["GENE","NOPE"]}`, http.StatusBadRequest},
		{"unknown pattern", "/api/moi/genotypes", `{"pedigree":{"id":"f","members":[{"id":"a"}]},"disorder":"d","pattern":"CODOMINANT"}`, http.StatusBadRequest},
		{"unknown kind", "/api/compile/graph", `{}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockRepository{}
			ts := setupTestServer(t, repo)
			resp, body := post(t, ts, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, string(body))
			assert.Empty(t, repo.statements, "no statement may reach the store")
		})
	}
}

func TestStoreErrorIsBadGateway(t *testing.T) {
	repo := &MockRepository{err: &graph.StoreExecutionError{Statement: "MATCH (n) RETURN n", Err: errors.New("unavailable")}}
	ts := setupTestServer(t, repo)

	resp, _ := post(t, ts, "/api/query/nodes", `{"query":{"node.type":"GENE"}}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

const trio = `{
	"id": "fam1",
	"proband": "child",
	"members": [
		{"id": "father", "sampleId": "f", "sex": "MALE"},
		{"id": "mother", "sampleId": "m", "sex": "FEMALE"},
		{"id": "child", "sampleId": "p", "sex": "FEMALE", "fatherId": "father", "motherId": "mother", "disorders": {"HP:0001250": "AFFECTED"}}
	]
}`

func TestDeriveGenotypes(t *testing.T) {
	ts := setupTestServer(t, &MockRepository{})

	resp, body := post(t, ts, "/api/moi/genotypes", `{"pedigree":`+trio+`,"disorder":"HP:0001250","pattern":"AUTOSOMAL_RECESSIVE"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var res GenotypesResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, []string{"1/1", "1|1"}, res.Genotypes["p"])
	assert.Equal(t, "f:0/1,0|1,1|0;m:0/1,0|1,1|0;p:1/1,1|1", res.Filter)

	resp, body = post(t, ts, "/api/moi/genotypes", `{"pedigree":`+trio+`,"disorder":"OTHER","pattern":"AUTOSOMAL_DOMINANT"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
}

func TestMoIVariants_DeNovo(t *testing.T) {
	v := model.NewNode(7, model.Variant, "2:166848646:G:A", "")
	repo := &MockRepository{rows: [][]any{
		{v, []any{[]any{"p", "0/1"}, []any{"f", "0/0"}, []any{"m", "0/0"}}, []any{"SCN1A"}},
	}}
	ts := setupTestServer(t, repo)

	resp, body := post(t, ts, "/api/moi/variants", `{"pedigree":`+trio+`,"disorder":"HP:0001250","pattern":"DE_NOVO","query":{"gene":"SCN1A"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var res struct {
		ResultCount int `json:"resultCount"`
		Variants    []struct {
			Variant model.Node        `json:"variant"`
			Calls   map[string]string `json:"calls"`
		} `json:"variants"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	require.Equal(t, 1, res.ResultCount)
	assert.Equal(t, "2:166848646:G:A", res.Variants[0].Variant.ID)
	assert.Equal(t, "0/0", res.Variants[0].Calls["f"])
}

func TestCompile(t *testing.T) {
	repo := &MockRepository{}
	ts := setupTestServer(t, repo)

	resp, body := post(t, ts, "/api/compile/variant", `{"query":{"chromosome":"X"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var stmt query.Statement
	require.NoError(t, json.Unmarshal(body, &stmt))
	assert.Equal(t, "MATCH (v:VARIANT)\nWHERE v.chromosome = \"X\"\nRETURN DISTINCT v", stmt.Text)

	resp, body = post(t, ts, "/api/compile/moi", `{"pedigree":`+trio+`,"disorder":"HP:0001250","pattern":"X_LINKED_RECESSIVE"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `v.chromosome = \"X\"`)

	assert.Empty(t, repo.statements)
}
