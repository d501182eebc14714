package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/systemshift/biograph/internal/model"
)

// DefaultBatchSize is the number of rows per UNWIND statement.
const DefaultBatchSize = 1000

// LoadStats reports what Load wrote.
type LoadStats struct {
	Nodes      int `json:"nodes"`
	Relations  int `json:"relations"`
	Statements int `json:"statements"`
}

// batch is one parameterized write. Relation batches return the number of
// relations they created.
type batch struct {
	text      string
	rows      []map[string]any
	relations bool
}

var labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func label(s string) string {
	if labelPattern.MatchString(s) {
		return s
	}
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// Load writes network into the store. Nodes are created first, grouped by
// label set, then relations grouped by type and endpoint labels. Endpoints
// missing from network are matched by uid alone. A relation batch whose
// endpoints are not all in the store is rolled back and fails with
// model.ErrUnknownEndpoint.
func (s *Store) Load(ctx context.Context, network *model.Network, batchSize int) (LoadStats, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	batches, stats, err := loadBatches(network, batchSize)
	if err != nil {
		return LoadStats{}, err
	}

	ctx, span := tracer.Start(ctx, "graph.Load",
		trace.WithAttributes(
			attribute.Int("load.nodes", stats.Nodes),
			attribute.Int("load.relations", stats.Relations),
		),
	)
	defer span.End()

	if err := s.sessions.Acquire(ctx, 1); err != nil {
		return LoadStats{}, &StoreExecutionError{Err: fmt.Errorf("waiting for a session: %w", err)}
	}
	defer s.sessions.Release(1)

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.cfg.Database})
	defer session.Close(ctx)

	for i, b := range batches {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, b.text, map[string]any{"rows": b.rows})
			if err != nil || !b.relations {
				return nil, err
			}
			return nil, checkCreated(ctx, res, len(b.rows))
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "load failed")
			s.logger.Error("load batch failed", "batch", i, "rows", len(b.rows), "error", err)
			return LoadStats{}, &StoreExecutionError{Statement: b.text, Err: err}
		}
		s.logger.Debug("load batch written", "batch", i, "rows", len(b.rows))
	}

	loadedTotal.WithLabelValues("node").Add(float64(stats.Nodes))
	loadedTotal.WithLabelValues("relation").Add(float64(stats.Relations))
	s.logger.Info("network loaded", "network", network.ID, "nodes", stats.Nodes, "relations", stats.Relations, "statements", stats.Statements)
	return stats, nil
}

// loadBatches builds the write statements for network without touching the
// store.
func loadBatches(network *model.Network, batchSize int) ([]batch, LoadStats, error) {
	if network == nil {
		return nil, LoadStats{}, fmt.Errorf("nil network")
	}
	var stats LoadStats

	nodeLabels := make(map[int64]string, len(network.Nodes))
	nodeGroups := make(map[string][]map[string]any)
	for _, n := range network.Nodes {
		labels := n.Tags
		if len(labels) == 0 {
			labels = n.Type.Labels()
		}
		if len(labels) == 0 {
			return nil, stats, fmt.Errorf("node %d has no labels", n.UID)
		}
		quoted := make([]string, len(labels))
		for i, l := range labels {
			quoted[i] = label(l)
		}
		key := strings.Join(quoted, ":")
		nodeLabels[n.UID] = label(string(n.Type))
		if n.Type == "" {
			nodeLabels[n.UID] = quoted[0]
		}

		row := flatten(n.Attributes)
		row[propUID] = n.UID
		row[propID] = n.ID
		row[propName] = n.Name
		nodeGroups[key] = append(nodeGroups[key], row)
		stats.Nodes++
	}

	var out []batch
	for _, key := range sortedKeys(nodeGroups) {
		text := "UNWIND $rows AS row\nCREATE (n:" + key + ")\nSET n = row"
		out = appendChunks(out, text, nodeGroups[key], batchSize)
	}

	relGroups := make(map[string][]map[string]any)
	relText := make(map[string]string)
	for _, r := range network.Relations {
		if r.Type == "" {
			return nil, stats, fmt.Errorf("relation %d has no type", r.UID)
		}
		orig := endpointPattern("a", nodeLabels, r.OrigUID)
		dest := endpointPattern("b", nodeLabels, r.DestUID)
		text := "UNWIND $rows AS row\n" +
			"MATCH " + orig + "\n" +
			"MATCH " + dest + "\n" +
			"CREATE (a)-[r:" + label(string(r.Type)) + "]->(b)\n" +
			"SET r = row\n" +
			"RETURN count(r) AS created"
		relText[text] = text

		row := flatten(r.Attributes)
		row[propUID] = r.UID
		row[propName] = r.Name
		row[propOrigUID] = r.OrigUID
		row[propDestUID] = r.DestUID
		relGroups[text] = append(relGroups[text], row)
		stats.Relations++
	}
	nodeBatches := len(out)
	for _, text := range sortedKeys(relGroups) {
		out = appendChunks(out, relText[text], relGroups[text], batchSize)
	}
	for i := nodeBatches; i < len(out); i++ {
		out[i].relations = true
	}

	stats.Statements = len(out)
	return out, stats, nil
}

func checkCreated(ctx context.Context, res neo4j.ResultWithContext, want int) error {
	rec, err := res.Single(ctx)
	if err != nil {
		return err
	}
	v, _ := rec.Get("created")
	created, _ := v.(int64)
	if int(created) < want {
		return fmt.Errorf("%w: created %d of %d relations", model.ErrUnknownEndpoint, created, want)
	}
	return nil
}

func endpointPattern(variable string, labels map[int64]string, uid int64) string {
	prop := propOrigUID
	if variable == "b" {
		prop = propDestUID
	}
	if l, ok := labels[uid]; ok {
		return "(" + variable + ":" + l + " {uid: row." + prop + "})"
	}
	return "(" + variable + " {uid: row." + prop + "})"
}

func appendChunks(out []batch, text string, rows []map[string]any, size int) []batch {
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, batch{text: text, rows: rows[start:end]})
	}
	return out
}

// flatten keeps values Neo4j can store as properties and JSON-encodes the
// rest, since Neo4j doesn't support nested maps.
func flatten(attrs map[string]any) map[string]any {
	row := make(map[string]any, len(attrs)+3)
	for k, v := range attrs {
		switch t := v.(type) {
		case nil:
			continue
		case string, bool, int, int32, int64, float32, float64, []string, []int64, []float64:
			row[k] = t
		default:
			encoded, err := json.Marshal(t)
			if err != nil {
				row[k] = fmt.Sprint(t)
				continue
			}
			row[k] = string(encoded)
		}
	}
	return row
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnsureIndexes creates uid and id indexes for every node type.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.cfg.Database})
	defer session.Close(ctx)

	for _, stmt := range indexStatements() {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		})
		if err != nil {
			return &StoreExecutionError{Statement: stmt, Err: err}
		}
	}
	s.logger.Info("indexes ensured", "types", len(model.NodeTypes()))
	return nil
}

func indexStatements() []string {
	var out []string
	for _, t := range model.NodeTypes() {
		if t == model.Undefined {
			continue
		}
		for _, prop := range []string{propUID, propID} {
			name := "biograph_" + strings.ToLower(string(t)) + "_" + prop
			out = append(out, fmt.Sprintf("CREATE INDEX %s IF NOT EXISTS FOR (n:%s) ON (n.%s)", name, label(string(t)), prop))
		}
	}
	return out
}
