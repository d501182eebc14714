package graph

import (
	"context"

	"github.com/systemshift/biograph/internal/model"
	"github.com/systemshift/biograph/internal/query"
)

// Executor runs compiled statements and materializes their results.
type Executor interface {
	Nodes(ctx context.Context, stmt query.Statement) (*QueryResult[*model.Node], error)
	Paths(ctx context.Context, stmt query.Statement) (*QueryResult[*model.Network], error)
	Table(ctx context.Context, stmt query.Statement) (*QueryResult[[]any], error)
}

// Repository defines the interface for graph storage backends.
type Repository interface {
	Executor

	// Lifecycle
	Close(ctx context.Context) error
	Ping(ctx context.Context) error
	EnsureIndexes(ctx context.Context) error

	// Bulk load
	Load(ctx context.Context, network *model.Network, batchSize int) (LoadStats, error)
}

var _ Repository = (*Store)(nil)
