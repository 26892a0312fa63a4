package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/genomeprivacy/vcf-anony/internal/config"
	"github.com/genomeprivacy/vcf-anony/internal/duckdb"
	"github.com/genomeprivacy/vcf-anony/internal/output"
)

func newHistoryCmd(a *app) *cobra.Command {
	var failedOnly, clearAll bool

	cmd := &cobra.Command{
		Use:   "history [anonymized-file-name]",
		Short: "Show verification outcomes stored with --db",
		Example: `  vcf-anony history --db results.duckdb --failed
  vcf-anony history --db results.duckdb high_0.01_anony_sample.vcf.gz`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.v.BindPFlag(config.KeyDBPath, cmd.Flags().Lookup("db")); err != nil {
				return err
			}
			path := a.v.GetString(config.KeyDBPath)
			if path == "" {
				return errors.New("no outcome store: pass --db or set db_path")
			}

			store, err := duckdb.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			var records []duckdb.OutcomeRecord
			switch {
			case clearAll:
				if err := store.ClearOutcomes(); err != nil {
					return fmt.Errorf("clearing outcomes: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared outcomes in %s\n", path)
				return nil
			case len(args) == 1:
				records, err = store.LookupOutcomes(args[0])
			case failedOnly:
				records, err = store.FailedOutcomes()
			default:
				return errors.New("pass a file name or --failed")
			}
			if err != nil {
				return err
			}
			return output.WriteHistory(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().String("db", "", "DuckDB file holding stored outcomes")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "list files whose latest verification failed")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete every stored outcome")

	return cmd
}
