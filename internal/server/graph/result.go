package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/systemshift/biograph/internal/model"
)

// DefaultMaxResults caps the rows read from one cursor.
const DefaultMaxResults = 50000

// QueryResult wraps materialized rows with timing and truncation info.
type QueryResult[T any] struct {
	ID            string `json:"id"`
	ElapsedTimeMs int64  `json:"elapsedTimeMs"`
	ResultCount   int    `json:"resultCount"`
	Truncated     bool   `json:"truncated"`
	Results       []T    `json:"results"`
}

// Cursor is the part of a driver result the materializer reads.
// neo4j.ResultWithContext satisfies it.
type Cursor interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
	Err() error
}

// rowFunc converts one record into a result element.
type rowFunc[T any] func(rec *neo4j.Record) (T, error)

// materialize reads rows until the cursor is exhausted or limit rows have been
// read. Truncated is set when a row beyond the cap was available.
func materialize[T any](ctx context.Context, cur Cursor, limit int, convert rowFunc[T]) ([]T, bool, error) {
	rows := make([]T, 0)
	for cur.Next(ctx) {
		if limit > 0 && len(rows) >= limit {
			return rows, true, nil
		}
		row, err := convert(cur.Record())
		if err != nil {
			return nil, false, err
		}
		rows = append(rows, row)
	}
	if err := cur.Err(); err != nil {
		return nil, false, err
	}
	return rows, false, nil
}

func nodeRow(rec *neo4j.Record) (*model.Node, error) {
	if len(rec.Values) == 0 {
		return nil, fmt.Errorf("empty record")
	}
	node, ok := ConvertValue(rec.Values[0]).(*model.Node)
	if !ok {
		return nil, fmt.Errorf("column %q holds %T, want a node", firstKey(rec), rec.Values[0])
	}
	return node, nil
}

func pathRow(rec *neo4j.Record) (*model.Network, error) {
	if len(rec.Values) == 0 {
		return nil, fmt.Errorf("empty record")
	}
	net, ok := ConvertValue(rec.Values[0]).(*model.Network)
	if !ok {
		return nil, fmt.Errorf("column %q holds %T, want a path", firstKey(rec), rec.Values[0])
	}
	return net, nil
}

func tableRow(rec *neo4j.Record) ([]any, error) {
	row := make([]any, len(rec.Values))
	for i, v := range rec.Values {
		row[i] = ConvertValue(v)
	}
	return row, nil
}

func firstKey(rec *neo4j.Record) string {
	if len(rec.Keys) == 0 {
		return ""
	}
	return rec.Keys[0]
}
