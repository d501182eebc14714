// Package config loads biograph configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/systemshift/biograph/internal/logger"
	"github.com/systemshift/biograph/internal/server/graph"
)

// Config holds the biograph configuration
type Config struct {
	Neo4j  Neo4j         `yaml:"neo4j"`
	Server Server        `yaml:"server"`
	Query  Query         `yaml:"query"`
	Log    logger.Config `yaml:"log"`
}

// Neo4j connection settings.
type Neo4j struct {
	URI      string `yaml:"uri" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Database string `yaml:"database" validate:"required"`
}

// Server settings.
type Server struct {
	Port            string        `yaml:"port" validate:"required,numeric"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Query execution limits.
type Query struct {
	MaxResults  int           `yaml:"max_results" validate:"gte=1"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
	MaxSessions int64         `yaml:"max_sessions" validate:"gte=1"`
	BatchSize   int           `yaml:"batch_size" validate:"gte=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Neo4j: Neo4j{
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Password: "password",
			Database: "neo4j",
		},
		Server: Server{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Query: Query{
			MaxResults:  graph.DefaultMaxResults,
			Timeout:     60 * time.Second,
			MaxSessions: 8,
			BatchSize:   graph.DefaultBatchSize,
		},
		Log: logger.Config{Level: "info", Format: "text"},
	}
}

var validate = validator.New()

// Load reads path when it is non-empty, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s fails %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("NEO4J_URI", &c.Neo4j.URI)
	str("NEO4J_USER", &c.Neo4j.User)
	str("NEO4J_PASSWORD", &c.Neo4j.Password)
	str("NEO4J_DATABASE", &c.Neo4j.Database)
	str("PORT", &c.Server.Port)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("BIOGRAPH_MAX_RESULTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BIOGRAPH_MAX_RESULTS: %w", err)
		}
		c.Query.MaxResults = n
	}
	if v, ok := lookup("BIOGRAPH_MAX_SESSIONS"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BIOGRAPH_MAX_SESSIONS: %w", err)
		}
		c.Query.MaxSessions = n
	}
	if v, ok := lookup("BIOGRAPH_QUERY_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BIOGRAPH_QUERY_TIMEOUT: %w", err)
		}
		c.Query.Timeout = d
	}
	return nil
}

// Store converts the settings into a graph store configuration.
func (c *Config) Store() graph.Config {
	return graph.Config{
		URI:          c.Neo4j.URI,
		Username:     c.Neo4j.User,
		Password:     c.Neo4j.Password,
		Database:     c.Neo4j.Database,
		MaxSessions:  c.Query.MaxSessions,
		QueryTimeout: c.Query.Timeout,
		MaxResults:   c.Query.MaxResults,
	}
}
