package main

import (
	"github.com/spf13/cobra"

	"github.com/systemshift/biograph/internal/logger"
	"github.com/systemshift/biograph/internal/moi"
	"github.com/systemshift/biograph/internal/query"
	"github.com/systemshift/biograph/internal/server/graph"
)

type tableOutput struct {
	*graph.QueryResult[[]any]
	Columns []string `json:"columns"`
}

func (c *cli) newQueryCmd() *cobra.Command {
	var flags statementFlags
	cmd := &cobra.Command{
		Use:   "query {node|path|network|variant|moi}",
		Short: "Compile a query and run it against the graph",
		Example: `  biograph query variant -q '{"gene":"BRCA2","populationFrequencyAlt":"gnomad:ALL<0.01"}' -o '{"limit":100}'
  biograph query moi --pedigree fam.yaml --disorder HP:0001250 --pattern COMPOUND_HETEROZYGOUS -q @filters.json`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"node", "path", "network", "variant", "moi"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			// Compile first so bad input never opens a connection.
			stmt, plan, err := flags.compile(cmd, kind)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			out := cmd.OutOrStdout()
			if plan != nil {
				res, err := moi.NewEngine(store, logger.Default()).Run(ctx, flags.request)
				if err != nil {
					return err
				}
				return printJSON(out, res)
			}

			switch {
			case stmt.Kind == query.KindPath, stmt.Kind == query.KindNetwork:
				res, err := store.Paths(ctx, stmt)
				if err != nil {
					return err
				}
				return printJSON(out, res)
			case stmt.Kind == query.KindNode && flags.opts.Has(query.OptInclude),
				stmt.Kind == query.KindVariant && flags.opts.Has(query.OptIncludeSamples):
				res, err := store.Table(ctx, stmt)
				if err != nil {
					return err
				}
				return printJSON(out, tableOutput{QueryResult: res, Columns: stmt.Columns})
			}
			res, err := store.Nodes(ctx, stmt)
			if err != nil {
				return err
			}
			return printJSON(out, res)
		},
	}
	flags.register(cmd)
	return cmd
}
