package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every override so host settings don't leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"NEO4J_URI", "NEO4J_USER", "NEO4J_PASSWORD", "NEO4J_DATABASE", "PORT", "LOG_LEVEL", "LOG_FORMAT",
		"BIOGRAPH_MAX_RESULTS", "BIOGRAPH_MAX_SESSIONS", "BIOGRAPH_QUERY_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, 50000, cfg.Query.MaxResults)
	assert.Equal(t, 60*time.Second, cfg.Query.Timeout)

	store := cfg.Store()
	assert.Equal(t, "neo4j", store.Database)
	assert.Equal(t, int64(8), store.MaxSessions)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biograph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
neo4j:
  uri: bolt://graph:7687
  database: reactome
query:
  max_results: 100
  timeout: 5s
log:
  level: debug
  format: json
`), 0o644))

	clearEnv(t)
	t.Setenv("NEO4J_DATABASE", "cellbase")
	t.Setenv("BIOGRAPH_MAX_SESSIONS", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt://graph:7687", cfg.Neo4j.URI)
	assert.Equal(t, "cellbase", cfg.Neo4j.Database)
	assert.Equal(t, 100, cfg.Query.MaxResults)
	assert.Equal(t, 5*time.Second, cfg.Query.Timeout)
	assert.Equal(t, int64(2), cfg.Query.MaxSessions)
	assert.Equal(t, "json", cfg.Log.Format)
	// Untouched sections keep defaults.
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		yaml string
	}{
		{name: "bad max results env", env: map[string]string{"BIOGRAPH_MAX_RESULTS": "many"}},
		{name: "bad timeout env", env: map[string]string{"BIOGRAPH_QUERY_TIMEOUT": "soon"}},
		{name: "zero max results", env: map[string]string{"BIOGRAPH_MAX_RESULTS": "0"}},
		{name: "non numeric port", env: map[string]string{"PORT": "http"}},
		{name: "unknown log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "broken yaml", yaml: "neo4j: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = filepath.Join(t.TempDir(), "c.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
