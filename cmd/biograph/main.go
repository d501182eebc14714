package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/systemshift/biograph/internal/config"
	"github.com/systemshift/biograph/internal/logger"
	"github.com/systemshift/biograph/internal/query"
	"github.com/systemshift/biograph/internal/server/graph"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by every subcommand.
type cli struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "biograph",
		Short: "Compile and run biological graph queries",
		Long: `biograph compiles node, path, network and variant queries into Cypher,
derives pedigree genotype filters for a mode of inheritance, and runs
them against a Neo4j graph.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			l, err := logger.New(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logger.SetLogger(l)
			c.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("BIOGRAPH_CONFIG"), "path to a YAML config file")

	root.AddCommand(
		c.newCompileCmd(),
		c.newDeriveCmd(),
		c.newQueryCmd(),
		c.newLoadCmd(),
	)
	return root
}

// openStore connects to the configured graph store.
func (c *cli) openStore(ctx context.Context) (*graph.Store, error) {
	store, err := graph.New(ctx, c.cfg.Store(), logger.Default())
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", c.cfg.Neo4j.URI, err)
	}
	return store, nil
}

// parseQuery reads a JSON query given inline, as @file, or as @- for stdin.
// An empty argument yields an empty query.
func parseQuery(arg string, stdin io.Reader) (*query.Query, error) {
	q := &query.Query{}
	if strings.TrimSpace(arg) == "" {
		return q, nil
	}
	data := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		if path == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	if err := json.Unmarshal(data, q); err != nil {
		return nil, fmt.Errorf("parsing query: %w", err)
	}
	return q, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
