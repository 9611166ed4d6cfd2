package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skillupx/skillupx/problem"
)

var errNoDatabase = errors.New("DATABASE_URL is required")

func newProblemsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "problems",
		Short: "Browse and manage the problem catalog",
		Long: `Browse and manage the problem catalog.

The catalog is read from Postgres when DATABASE_URL is set, from the YAML
file in SKILLUPX_CATALOG, or from the built-in set of problems.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List problems",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, closeStore, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer closeStore()

				problems, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tFUNCTION\tDIFFICULTY\tTESTS")
				for _, p := range problems {
					s := p.Summarize()
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", s.ID, s.Title, s.FunctionName, s.Difficulty, s.Tests)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "show ID",
			Short: "Print one problem as YAML",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, closeStore, err := a.openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer closeStore()

				p, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(p); err != nil {
					return err
				}
				return enc.Close()
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the Postgres schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				pg, err := a.connectPostgres(cmd)
				if err != nil {
					return err
				}
				defer pg.Close()

				if err := pg.Migrate(cmd.Context()); err != nil {
					return err
				}
				a.logger.Info("schema ready")
				return nil
			},
		},
		&cobra.Command{
			Use:   "import FILE",
			Short: "Load a YAML catalog into Postgres",
			Long: `Load a YAML catalog into Postgres, replacing problems with the same id.
Use "-" as FILE to import the built-in catalog.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var problems []problem.Problem
				if args[0] == "-" {
					mem, err := problem.Default()
					if err != nil {
						return err
					}
					problems, _ = mem.List(cmd.Context())
				} else {
					f, err := os.Open(args[0])
					if err != nil {
						return err
					}
					defer f.Close()
					if problems, err = problem.DecodeCatalog(f); err != nil {
						return err
					}
				}

				pg, err := a.connectPostgres(cmd)
				if err != nil {
					return err
				}
				defer pg.Close()

				if err := pg.Migrate(cmd.Context()); err != nil {
					return err
				}
				for _, p := range problems {
					if err := pg.Put(cmd.Context(), p); err != nil {
						return err
					}
				}
				a.logger.Info("imported problems", "count", len(problems))
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d problems\n", len(problems))
				return nil
			},
		},
	)
	return cmd
}

func (a *app) connectPostgres(cmd *cobra.Command) (*problem.PostgresStore, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, errNoDatabase
	}
	return problem.Connect(cmd.Context(), a.cfg.DatabaseURL)
}
