package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/genomeprivacy/vcf-anony/internal/batch"
	"github.com/genomeprivacy/vcf-anony/internal/config"
	"github.com/genomeprivacy/vcf-anony/internal/duckdb"
	"github.com/genomeprivacy/vcf-anony/internal/mask"
	"github.com/genomeprivacy/vcf-anony/internal/output"
	"github.com/genomeprivacy/vcf-anony/internal/verify"
)

type verifyOptions struct {
	origin        string
	anony         string
	skipUnchanged bool
}

func newVerifyCmd(a *app) *cobra.Command {
	var opts verifyOptions
	var keys map[string]string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify anonymized files against their originals",
		Long: `Pair every anonymized file with its original by the name after "anony_",
check that each sensitive item was masked and write a CSV report.

The level of each pair comes from the anonymized file name prefix
(low_/weak_ or high_/strong_). Outcomes can also be stored in DuckDB with
--db, which enables --skip-unchanged and the history command.`,
		Example: `  vcf-anony verify -o data/ -a anonymized/
  vcf-anony verify -o data/ -a anonymized/ --markdown --report-dir out/
  vcf-anony verify -o data/ -a anonymized/ --db results.duckdb --skip-unchanged`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Flags(), keys)
			if err != nil {
				return err
			}
			if opts.skipUnchanged && cfg.DBPath == "" {
				return errors.New("--skip-unchanged requires --db")
			}
			return runVerify(cmd.Context(), cmd.OutOrStdout(), a.logger, cfg, opts)
		},
	}

	d := config.Default()
	cmd.Flags().StringVarP(&opts.origin, "origin", "o", "", "directory of original VCF files")
	cmd.Flags().StringVarP(&opts.anony, "anony", "a", "", "directory of anonymized VCF files")
	cmd.Flags().BoolVar(&opts.skipUnchanged, "skip-unchanged", false, "reuse stored outcomes for pairs whose files have not changed")
	cmd.Flags().String("report-dir", d.ReportDir, "directory for the CSV report")
	cmd.Flags().Bool("markdown", d.Markdown, "also write a Markdown summary next to the report")
	cmd.Flags().String("db", d.DBPath, "DuckDB file to store outcomes in")
	keys = addPolicyFlags(cmd.Flags())
	keys["report-dir"] = config.KeyReportDir
	keys["markdown"] = config.KeyMarkdown
	keys["db"] = config.KeyDBPath
	_ = cmd.MarkFlagRequired("origin")
	_ = cmd.MarkFlagRequired("anony")

	return cmd
}

// checked is the per-pair value produced by the worker pool.
type checked struct {
	record duckdb.OutcomeRecord
	reused bool
}

func runVerify(ctx context.Context, w io.Writer, logger *zap.Logger, cfg *config.Config, opts verifyOptions) error {
	start := time.Now()

	plan, err := verify.PlanPairs(opts.origin, opts.anony)
	if err != nil {
		return err
	}
	for _, s := range plan.Skipped {
		logger.Warn("not verified", zap.String("file", s.Name), zap.Error(s.Err))
	}

	var store *duckdb.Store
	if cfg.DBPath != "" {
		store, err = duckdb.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	engine := verify.NewEngine(cfg.Policy())
	verifier := verify.NewVerifier(engine, cfg.RequireIndex)
	verifier.SetLogger(logger)

	var (
		summary verify.Summary
		fresh   []duckdb.OutcomeRecord
	)
	err = batch.Run(ctx, plan.Pairs, cfg.Workers,
		func(_ context.Context, p verify.Pair) (checked, error) {
			return checkPair(verifier, store, cfg.Policy(), opts.skipUnchanged, logger, p)
		},
		func(r batch.Result[verify.Pair, checked]) error {
			if r.Err != nil {
				summary.AddError()
				logger.Error("verification failed",
					zap.String("anony", filepath.Base(r.Input.Anonymized)), zap.Error(r.Err))
				return nil
			}
			summary.Add(r.Value.record.Outcome)
			if !r.Value.reused {
				fresh = append(fresh, r.Value.record)
			}
			return nil
		})
	if err != nil {
		return err
	}
	summary.Elapsed = time.Since(start)

	if store != nil {
		if err := store.WriteOutcomes(fresh); err != nil {
			return err
		}
		logger.Debug("outcomes stored", zap.String("db", store.Path()), zap.Int("records", len(fresh)))
	}

	reportPath, err := output.NextReportPath(cfg.ReportDir, ".csv")
	if err != nil {
		return err
	}
	if err := output.WriteReportFile(reportPath, summary.Outcomes); err != nil {
		return err
	}

	if cfg.Markdown {
		if err := writeMarkdownSummary(strings.TrimSuffix(reportPath, ".csv")+".md", summary, reportPath); err != nil {
			return err
		}
	}

	if err := output.WriteConsoleSummary(w, summary, reportPath); err != nil {
		return err
	}
	if len(plan.Pairs) > 0 && summary.Errors == len(plan.Pairs) {
		return errAllFailed
	}
	return ctx.Err()
}

// checkPair verifies one pair, or returns the stored outcome when
// skipUnchanged is set, neither file changed and the policy is the same.
func checkPair(v *verify.Verifier, store *duckdb.Store, policy mask.Policy, skipUnchanged bool,
	logger *zap.Logger, p verify.Pair) (checked, error) {
	orig, err := duckdb.StatFile(p.Original)
	if err != nil {
		return checked{}, err
	}
	anon, err := duckdb.StatFile(p.Anonymized)
	if err != nil {
		return checked{}, err
	}

	if skipUnchanged && store != nil {
		rec, ok, err := store.LatestOutcome(orig, anon, policy)
		if err != nil {
			return checked{}, err
		}
		if ok {
			logger.Info("unchanged, reusing stored outcome",
				zap.String("anony", filepath.Base(p.Anonymized)),
				zap.Time("verified_at", rec.VerifiedAt))
			return checked{record: rec, reused: true}, nil
		}
	}

	out, err := v.Pair(p)
	if err != nil {
		return checked{}, err
	}
	return checked{record: duckdb.OutcomeRecord{
		Outcome:    out,
		Original:   orig,
		Anonymized: anon,
		Policy:     policy,
		VerifiedAt: time.Now(),
	}}, nil
}

func writeMarkdownSummary(path string, s verify.Summary, reportPath string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating markdown summary: %w", err)
	}
	if err := output.NewMarkdownWriter(f).Write(s, reportPath); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
