package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/systemshift/biograph/internal/model"
	"github.com/systemshift/biograph/internal/query"
)

// Store executes compiled statements against Neo4j
type Store struct {
	driver   neo4j.DriverWithContext
	cfg      Config
	sessions *semaphore.Weighted
	inflight singleflight.Group
	logger   *slog.Logger
}

// Config holds Neo4j connection configuration
type Config struct {
	URI      string
	Username string
	Password string
	Database string

	// MaxSessions bounds concurrently open sessions.
	MaxSessions int64
	// QueryTimeout bounds one statement including materialization. Zero
	// disables it.
	QueryTimeout time.Duration
	// MaxResults caps rows read per statement.
	MaxResults int
}

func (c Config) withDefaults() Config {
	if c.Database == "" {
		c.Database = "neo4j"
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 8
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	return c
}

// New creates a new Neo4j store
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	// Verify connectivity
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	return newStore(driver, cfg, logger), nil
}

func newStore(driver neo4j.DriverWithContext, cfg Config, logger *slog.Logger) *Store {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		driver:   driver,
		cfg:      cfg,
		sessions: semaphore.NewWeighted(cfg.MaxSessions),
		logger:   logger.With("component", "graph"),
	}
}

// Close closes the Neo4j connection
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Ping checks that the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Nodes runs a node statement and returns the nodes in its first column.
func (s *Store) Nodes(ctx context.Context, stmt query.Statement) (*QueryResult[*model.Node], error) {
	return execute(ctx, s, stmt, nodeRow)
}

// Paths runs a path or network statement.
func (s *Store) Paths(ctx context.Context, stmt query.Statement) (*QueryResult[*model.Network], error) {
	return execute(ctx, s, stmt, pathRow)
}

// Table runs any statement and returns its rows with converted values, in
// stmt.Columns order.
func (s *Store) Table(ctx context.Context, stmt query.Statement) (*QueryResult[[]any], error) {
	return execute(ctx, s, stmt, tableRow)
}

// execute runs stmt in a read transaction on a pooled session. Identical
// statements in flight at the same time share one execution. The shared run
// is detached from any single caller's cancellation and bounded by the
// store's QueryTimeout; each caller stops waiting when its own ctx is done.
func execute[T any](ctx context.Context, s *Store, stmt query.Statement, convert rowFunc[T]) (*QueryResult[T], error) {
	kind := string(stmt.Kind)
	detached := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(kind+"\x00"+stmt.Text, func() (any, error) {
		return run(detached, s, stmt, convert)
	})
	select {
	case <-ctx.Done():
		s.logger.Debug("caller left before statement completed", "kind", kind, "error", ctx.Err())
		return nil, &StoreExecutionError{Statement: stmt.Text, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("shared in-flight statement result", "kind", kind)
		}
		return res.Val.(*QueryResult[T]), nil
	}
}

func run[T any](ctx context.Context, s *Store, stmt query.Statement, convert rowFunc[T]) (*QueryResult[T], error) {
	kind := string(stmt.Kind)
	ctx, span := tracer.Start(ctx, "graph.Execute",
		trace.WithAttributes(
			attribute.String("statement.kind", kind),
			attribute.Int("statement.length", len(stmt.Text)),
		),
	)
	defer span.End()

	start := time.Now()
	fail := func(err error) error {
		queriesTotal.WithLabelValues(kind, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "statement failed")
		s.logger.Error("statement failed", "kind", kind, "error", err, "statement", stmt.Text)
		return &StoreExecutionError{Statement: stmt.Text, Err: err}
	}

	// The timeout covers the wait for a pooled session too.
	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	if err := s.sessions.Acquire(ctx, 1); err != nil {
		return nil, fail(fmt.Errorf("waiting for a session: %w", s.timedOut(err)))
	}
	defer s.sessions.Release(1)
	sessionsInUse.Inc()
	defer sessionsInUse.Dec()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.cfg.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	s.logger.Debug("executing statement", "kind", kind, "statement", stmt.Text)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cursor, err := tx.Run(ctx, stmt.Text, nil)
		if err != nil {
			return nil, err
		}
		rows, truncated, err := materialize(ctx, cursor, s.cfg.MaxResults, convert)
		if err != nil {
			return nil, err
		}
		return &QueryResult[T]{Results: rows, Truncated: truncated}, nil
	})
	if err != nil {
		return nil, fail(s.timedOut(err))
	}

	out := result.(*QueryResult[T])
	elapsed := time.Since(start)
	out.ID = uuid.NewString()
	out.ElapsedTimeMs = elapsed.Milliseconds()
	out.ResultCount = len(out.Results)

	queriesTotal.WithLabelValues(kind, "ok").Inc()
	queryDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	resultRows.WithLabelValues(kind).Observe(float64(out.ResultCount))
	span.SetAttributes(attribute.Int("result.count", out.ResultCount), attribute.Bool("result.truncated", out.Truncated))
	if out.Truncated {
		truncatedTotal.WithLabelValues(kind).Inc()
		s.logger.Warn("result truncated", "kind", kind, "id", out.ID, "max_results", s.cfg.MaxResults)
	}
	s.logger.Debug("statement complete", "kind", kind, "id", out.ID, "rows", out.ResultCount, "elapsed_ms", out.ElapsedTimeMs)
	return out, nil
}

func (s *Store) timedOut(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", s.cfg.QueryTimeout, err)
	}
	return err
}
