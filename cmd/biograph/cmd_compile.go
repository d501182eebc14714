package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/systemshift/biograph/internal/model"
	"github.com/systemshift/biograph/internal/moi"
	"github.com/systemshift/biograph/internal/query"
)

// statementFlags are the inputs shared by compile and query.
type statementFlags struct {
	query      string
	options    string
	types      []string
	pedigree   string
	disorder   string
	pattern    string
	penetrance string

	// set by compile
	opts    *query.QueryOptions
	request moi.Request
}

func (f *statementFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "query as JSON, @file or @- for stdin")
	cmd.Flags().StringVarP(&f.options, "options", "o", "", "query options as JSON or @file")
	cmd.Flags().StringSliceVar(&f.types, "types", nil, "node types for network statements")
	f.registerMoI(cmd)
}

func (f *statementFlags) registerMoI(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.pedigree, "pedigree", "", "pedigree YAML or JSON file")
	cmd.Flags().StringVar(&f.disorder, "disorder", "", "disorder the pedigree is phenotyped for")
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "mode of inheritance, e.g. AUTOSOMAL_RECESSIVE")
	cmd.Flags().StringVar(&f.penetrance, "penetrance", "", "COMPLETE (default) or INCOMPLETE")
}

// compile builds the statement for kind. For moi it returns the plan as well.
func (f *statementFlags) compile(cmd *cobra.Command, kind string) (query.Statement, *moi.Plan, error) {
	q, err := parseQuery(f.query, cmd.InOrStdin())
	if err != nil {
		return query.Statement{}, nil, err
	}
	opts, err := parseQuery(f.options, cmd.InOrStdin())
	if err != nil {
		return query.Statement{}, nil, fmt.Errorf("options: %w", err)
	}
	f.opts = opts

	switch kind {
	case "node", "nodes":
		stmt, err := query.CompileNode(q, opts)
		return stmt, nil, err
	case "path", "paths":
		src, dest, err := query.PathFromQuery(q)
		if err != nil {
			return query.Statement{}, nil, err
		}
		stmt, err := query.CompilePath(src, dest, opts)
		return stmt, nil, err
	case "network":
		types := make([]model.NodeType, len(f.types))
		for i, t := range f.types {
			types[i] = model.NodeType(strings.ToUpper(t))
		}
		stmt, err := query.CompileNetwork(types, opts)
		return stmt, nil, err
	case "variant", "variants":
		stmt, err := query.CompileVariant(q, opts)
		return stmt, nil, err
	case "moi":
		req, err := f.moiRequest()
		if err != nil {
			return query.Statement{}, nil, err
		}
		req.Query, req.Options = q, opts
		f.request = req
		plan, err := moi.Prepare(req)
		if err != nil {
			return query.Statement{}, nil, err
		}
		return plan.Statement, plan, nil
	}
	return query.Statement{}, nil, fmt.Errorf("unknown statement kind %q", kind)
}

func (f *statementFlags) moiRequest() (moi.Request, error) {
	if f.pedigree == "" || f.disorder == "" || f.pattern == "" {
		return moi.Request{}, fmt.Errorf("--pedigree, --disorder and --pattern are required")
	}
	ped, err := readPedigree(f.pedigree)
	if err != nil {
		return moi.Request{}, err
	}
	return moi.Request{
		Pedigree:   ped,
		Disorder:   f.disorder,
		Pattern:    moi.Pattern(f.pattern),
		Penetrance: moi.Penetrance(f.penetrance),
	}, nil
}

// readPedigree loads a pedigree file. YAML is a superset of JSON, so both work.
func readPedigree(path string) (*moi.Pedigree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pedigree: %w", err)
	}
	var ped moi.Pedigree
	if err := yaml.Unmarshal(data, &ped); err != nil {
		return nil, fmt.Errorf("parsing pedigree %s: %w", path, err)
	}
	return &ped, nil
}

func (c *cli) newCompileCmd() *cobra.Command {
	var (
		flags statementFlags
		text  bool
	)
	cmd := &cobra.Command{
		Use:   "compile {node|path|network|variant|moi}",
		Short: "Print the Cypher statement for a query without running it",
		Example: `  biograph compile node -q '{"node.type":"GENE","name":"BRCA2"}'
  biograph compile network --types GENE,PROTEIN,PATHWAY -o '{"max-jumps":2}'
  biograph compile moi --pedigree fam.yaml --disorder HP:0001250 --pattern DE_NOVO -q '{"gene":"SCN1A"}'`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"node", "path", "network", "variant", "moi"},
		RunE: func(cmd *cobra.Command, args []string) error {
			stmt, plan, err := flags.compile(cmd, args[0])
			if err != nil {
				return err
			}
			if text {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), stmt.Text)
				return err
			}
			if plan != nil {
				return printJSON(cmd.OutOrStdout(), plan)
			}
			return printJSON(cmd.OutOrStdout(), stmt)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&text, "text", false, "print only the statement text")
	return cmd
}
