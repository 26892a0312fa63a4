package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/genomeprivacy/vcf-anony/internal/anonymize"
	"github.com/genomeprivacy/vcf-anony/internal/batch"
	"github.com/genomeprivacy/vcf-anony/internal/config"
	"github.com/genomeprivacy/vcf-anony/internal/output"
)

type anonymizeOptions struct {
	input  string
	output string
}

func newAnonymizeCmd(a *app) *cobra.Command {
	var opts anonymizeOptions
	var keys map[string]string

	cmd := &cobra.Command{
		Use:   "anonymize",
		Short: "Anonymize every compressed VCF file in a directory",
		Long: `Anonymize every .vcf.gz / .vcf.bgz file in the input directory.

Each output is BGZF-compressed, named low_anony_<file> or
high_<maf>_anony_<file>, and gets a CSI index next to it.`,
		Example: `  vcf-anony anonymize -i data/ -o anonymized/
  vcf-anony anonymize -i data/ -o anonymized/ --level low
  vcf-anony anonymize -i data/ -o anonymized/ --maf 0.05 --min-repeat 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Flags(), keys)
			if err != nil {
				return err
			}
			return runAnonymize(cmd.Context(), cmd.OutOrStdout(), a.logger, cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "directory of input VCF files")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "directory for anonymized files")
	cmd.Flags().String("level", config.Default().Level, "anonymization level: low or high")
	keys = addPolicyFlags(cmd.Flags())
	keys["level"] = config.KeyLevel
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runAnonymize(ctx context.Context, w io.Writer, logger *zap.Logger, cfg *config.Config, opts anonymizeOptions) error {
	start := time.Now()

	if err := os.MkdirAll(opts.output, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	level := cfg.LevelValue()
	jobs, err := anonymize.Plan(opts.input, opts.output, level, cfg.MAFThreshold)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		logger.Warn("no .vcf.gz or .vcf.bgz files found", zap.String("dir", opts.input))
	}
	logger.Debug("anonymizing",
		zap.Int("files", len(jobs)),
		zap.String("level", string(level)),
		zap.Float64("maf", cfg.MAFThreshold),
		zap.Int("workers", cfg.Workers))

	pipeline := anonymize.NewPipeline(level, cfg.Policy())
	anon := anonymize.NewAnonymizer(pipeline, cfg.RequireIndex)
	anon.SetLogger(logger)

	var (
		total  anonymize.Stats
		failed int
	)
	err = batch.Run(ctx, jobs, cfg.Workers,
		func(_ context.Context, job anonymize.Job) (anonymize.FileResult, error) {
			return anon.File(job)
		},
		func(r batch.Result[anonymize.Job, anonymize.FileResult]) error {
			if r.Err != nil {
				failed++
				logger.Error("skipping file", zap.String("file", r.Input.Input), zap.Error(r.Err))
				return nil
			}
			total.Add(r.Value.Stats)
			return nil
		})
	if err != nil {
		return err
	}

	if err := output.WriteAnonymizeSummary(w, len(jobs), failed, total, time.Since(start)); err != nil {
		return err
	}
	if len(jobs) > 0 && failed == len(jobs) {
		return errAllFailed
	}
	return ctx.Err()
}
