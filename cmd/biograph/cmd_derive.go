package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systemshift/biograph/internal/moi"
)

func (c *cli) newDeriveCmd() *cobra.Command {
	var (
		flags  statementFlags
		filter bool
	)
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive per-sample genotype filters from a pedigree",
		Example: `  biograph derive --pedigree fam.yaml --disorder HP:0001250 --pattern AUTOSOMAL_RECESSIVE
  biograph derive --pedigree fam.yaml --disorder HP:0001250 --pattern X_LINKED_DOMINANT --penetrance INCOMPLETE --filter`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.moiRequest()
			if err != nil {
				return err
			}
			pattern, err := moi.ParsePattern(string(req.Pattern))
			if err != nil {
				return err
			}
			penetrance, err := moi.ParsePenetrance(string(req.Penetrance))
			if err != nil {
				return err
			}
			genotypes, err := moi.DeriveGenotypes(req.Pedigree, req.Disorder, pattern, penetrance)
			if err != nil {
				return err
			}
			if filter {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), moi.FormatGenotypeMap(genotypes))
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"pattern":   pattern,
				"genotypes": genotypes,
				"filter":    moi.FormatGenotypeMap(genotypes),
			})
		},
	}
	flags.registerMoI(cmd)
	cmd.Flags().BoolVar(&filter, "filter", false, "print only the genotype filter expression")
	return cmd
}
