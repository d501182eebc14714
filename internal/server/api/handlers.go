package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/systemshift/biograph/internal/model"
	"github.com/systemshift/biograph/internal/moi"
	"github.com/systemshift/biograph/internal/query"
	"github.com/systemshift/biograph/internal/server/graph"
)

const maxBodyBytes = 4 << 20

var validate = validator.New()

// Server holds the HTTP server dependencies
type Server struct {
	repo   graph.Repository
	engine *moi.Engine
	logger *slog.Logger
}

// New creates a new API server
func New(repo graph.Repository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		repo:   repo,
		engine: moi.NewEngine(repo, logger),
		logger: logger.With("component", "api"),
	}
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/query/nodes", s.QueryNodes)
		r.Post("/query/paths", s.QueryPaths)
		r.Post("/query/network", s.QueryNetwork)
		r.Post("/query/variants", s.QueryVariants)
		r.Post("/moi/genotypes", s.DeriveGenotypes)
		r.Post("/moi/variants", s.MoIVariants)
		r.Post("/compile/{kind}", s.Compile)
	})
}

// QueryRequest is the request body for node, path and variant queries
type QueryRequest struct {
	Query   *query.Query        `json:"query" validate:"required"`
	Options *query.QueryOptions `json:"options,omitempty"`
}

// NetworkRequest is the request body for network queries
type NetworkRequest struct {
	Types   []string            `json:"types" validate:"min=2,dive,required"`
	Options *query.QueryOptions `json:"options,omitempty"`
}

// GenotypesResponse is the response for genotype derivation
type GenotypesResponse struct {
	Pattern   moi.Pattern         `json:"pattern"`
	Genotypes map[string][]string `json:"genotypes"`
	Filter    string              `json:"filter"`
}

// HealthCheck handles GET /health
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.repo.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

// QueryNodes handles POST /api/query/nodes
func (s *Server) QueryNodes(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	stmt, err := query.CompileNode(req.Query, req.Options)
	if err != nil {
		s.fail(w, err)
		return
	}
	if req.Options.Has(query.OptInclude) {
		s.respondTable(w, r, stmt)
		return
	}
	res, err := s.repo.Nodes(r.Context(), stmt)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// QueryPaths handles POST /api/query/paths
// The query carries the endpoints under src-node and dest-node.
func (s *Server) QueryPaths(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	src, dest, err := query.PathFromQuery(req.Query)
	if err != nil {
		s.fail(w, err)
		return
	}
	stmt, err := query.CompilePath(src, dest, req.Options)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondPaths(w, r, stmt)
}

// QueryNetwork handles POST /api/query/network
func (s *Server) QueryNetwork(w http.ResponseWriter, r *http.Request) {
	var req NetworkRequest
	if !s.decode(w, r, &req) {
		return
	}
	stmt, err := compileNetwork(req)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respondPaths(w, r, stmt)
}

// QueryVariants handles POST /api/query/variants
func (s *Server) QueryVariants(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	stmt, err := query.CompileVariant(req.Query, req.Options)
	if err != nil {
		s.fail(w, err)
		return
	}
	if req.Options.Has(query.OptIncludeSamples) {
		s.respondTable(w, r, stmt)
		return
	}
	res, err := s.repo.Nodes(r.Context(), stmt)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeriveGenotypes handles POST /api/moi/genotypes
func (s *Server) DeriveGenotypes(w http.ResponseWriter, r *http.Request) {
	var req moi.Request
	if !s.decode(w, r, &req) {
		return
	}
	pattern, err := moi.ParsePattern(string(req.Pattern))
	if err != nil {
		s.fail(w, err)
		return
	}
	penetrance, err := moi.ParsePenetrance(string(req.Penetrance))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	genotypes, err := moi.DeriveGenotypes(req.Pedigree, req.Disorder, pattern, penetrance)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GenotypesResponse{
		Pattern:   pattern,
		Genotypes: genotypes,
		Filter:    moi.FormatGenotypeMap(genotypes),
	})
}

// MoIVariants handles POST /api/moi/variants
func (s *Server) MoIVariants(w http.ResponseWriter, r *http.Request) {
	var req moi.Request
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.engine.Run(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Compile handles POST /api/compile/{kind}
// It returns the statement without running it. Kind is node, path,
// network, variant or moi.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	var (
		stmt query.Statement
		err  error
	)
	switch kind := chi.URLParam(r, "kind"); kind {
	case "node", "path", "variant":
		var req QueryRequest
		if !s.decode(w, r, &req) {
			return
		}
		switch kind {
		case "node":
			stmt, err = query.CompileNode(req.Query, req.Options)
		case "path":
			var src, dest *query.Query
			if src, dest, err = query.PathFromQuery(req.Query); err == nil {
				stmt, err = query.CompilePath(src, dest, req.Options)
			}
		default:
			stmt, err = query.CompileVariant(req.Query, req.Options)
		}
	case "network":
		var req NetworkRequest
		if !s.decode(w, r, &req) {
			return
		}
		stmt, err = compileNetwork(req)
	case "moi":
		var req moi.Request
		if !s.decode(w, r, &req) {
			return
		}
		plan, err := moi.Prepare(req)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, plan)
		return
	default:
		http.Error(w, "unknown statement kind "+kind, http.StatusNotFound)
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stmt)
}

func compileNetwork(req NetworkRequest) (query.Statement, error) {
	types := make([]model.NodeType, len(req.Types))
	for i, t := range req.Types {
		types[i] = model.NodeType(t)
	}
	return query.CompileNetwork(types, req.Options)
}

func (s *Server) respondPaths(w http.ResponseWriter, r *http.Request, stmt query.Statement) {
	res, err := s.repo.Paths(r.Context(), stmt)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// TableResponse is a projected result with its column names
type TableResponse struct {
	*graph.QueryResult[[]any]
	Columns []string `json:"columns"`
}

func (s *Server) respondTable(w http.ResponseWriter, r *http.Request, stmt query.Statement) {
	res, err := s.repo.Table(r.Context(), stmt)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TableResponse{QueryResult: res, Columns: stmt.Columns})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, query.ErrInvalidFilterExpression),
		errors.Is(err, query.ErrInvalidOption),
		errors.Is(err, moi.ErrUnknownPattern),
		errors.Is(err, moi.ErrInvalidPedigree),
		errors.Is(err, model.ErrUnknownNodeType):
		return http.StatusBadRequest
	case errors.Is(err, query.ErrUnsupportedFilter),
		errors.Is(err, moi.ErrNoSatisfiableGenotypes):
		return http.StatusUnprocessableEntity
	case errors.Is(err, graph.ErrStoreExecution):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", code, "error", err)
	} else {
		s.logger.Debug("request rejected", "status", code, "error", err)
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
