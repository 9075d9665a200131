package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/boristopalov/bandits/pkg/experiment"
	"github.com/boristopalov/bandits/pkg/results"
)

func newResultsCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect results stored in a SQLite database",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "sqlite", "bandits.db", "SQLite database written by 'run --sqlite'")

	openStore := func(cmd *cobra.Command) (*results.SQLiteStore, error) {
		store := results.NewSQLiteStore(dbPath)
		if err := store.Init(cmd.Context()); err != nil {
			return nil, fmt.Errorf("open %s: %w", dbPath, err)
		}
		return store, nil
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored suites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.ListResults(cmd.Context())
			if err != nil {
				return err
			}
			return printSummaries(cmd.OutOrStdout(), list)
		},
	}

	var (
		field    string
		decimals int
		out      string
		chart    string
	)
	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a stored suite as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("bad suite id: %w", err)
			}
			fld, err := results.ParseField(field)
			if err != nil {
				return err
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			res, ok, err := store.GetResult(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("suite %s not found in %s", id, dbPath)
			}

			if chart != "" {
				if err := writeFile(chart, func(w io.Writer) error {
					return results.RenderChart(w, res.Name, experiment.Summarize(res))
				}); err != nil {
					return err
				}
			}
			if out == "" || out == "-" {
				return results.WriteResult(cmd.OutOrStdout(), res, fld, decimals)
			}
			return writeFile(out, func(w io.Writer) error {
				return results.WriteResult(w, res, fld, decimals)
			})
		},
	}
	exportCmd.Flags().StringVar(&field, "field", "rewards", "rewards or actions")
	exportCmd.Flags().IntVar(&decimals, "decimals", results.DefaultDecimals, "decimal places for rewards")
	exportCmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	exportCmd.Flags().StringVar(&chart, "chart", "", "also write an HTML chart to this file")

	cmd.AddCommand(listCmd, exportCmd)
	return cmd
}

func printSummaries(w io.Writer, list []results.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTESTS\tSTEPS\tSTARTED")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.ID, s.Name, s.Tests, s.Steps, s.StartTime.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
