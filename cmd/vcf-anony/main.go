// Package main provides the vcf-anony command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/genomeprivacy/vcf-anony/internal/config"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errAllFailed is returned when a batch had work but nothing succeeded.
var errAllFailed = errors.New("every file failed")

// app carries state shared by the subcommands once the root has run.
type app struct {
	configPath string
	verbose    bool

	v      *viper.Viper
	logger *zap.Logger
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{logger: zap.NewNop()}
	root := newRootCmd(a)
	err := root.ExecuteContext(ctx)
	_ = a.logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return ExitSuccess
}

func exitCode(err error) int {
	for _, usage := range []error{
		config.ErrInvalidLevel,
		config.ErrInvalidThreshold,
		config.ErrInvalidSTR,
		config.ErrInvalidWorkers,
		config.ErrConfigNotFound,
	} {
		if errors.Is(err, usage) {
			return ExitUsage
		}
	}
	return ExitError
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "vcf-anony",
		Short: "Anonymize VCF files and verify the result",
		Long: `vcf-anony masks privacy-sensitive content in compressed VCF files.

Low level redacts header metadata (##cmdline, ##reference paths). High level
additionally masks short tandem repeats in ALT alleles and replaces the ALT
of rare variants with a no-call. The verify command checks an anonymized
directory against its originals and writes a CSV report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(a.verbose)
			if err != nil {
				return err
			}
			a.logger = logger

			v, err := config.NewViper(a.configPath)
			if err != nil {
				return err
			}
			a.v = v
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newAnonymizeCmd(a))
	root.AddCommand(newVerifyCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vcf-anony version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// newLogger builds the console logger: Info by default, Debug when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// loadConfig binds the command flags to their config keys and
// decodes the merged settings.
func (a *app) loadConfig(flags *pflag.FlagSet, keys map[string]string) (*config.Config, error) {
	for name, key := range keys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return config.Decode(a.v)
}

// addPolicyFlags registers the masking flags shared by anonymize and verify
// and returns their flag-to-key bindings.
func addPolicyFlags(flags *pflag.FlagSet) map[string]string {
	d := config.Default()
	flags.Float64("maf", d.MAFThreshold, "minor allele frequency threshold; rarer variants are masked")
	flags.Int("min-motif", d.MinMotif, "shortest repeat motif length")
	flags.Int("max-motif", d.MaxMotif, "longest repeat motif length")
	flags.Int("min-repeat", d.MinRepeat, "minimum consecutive motif copies for a repeat")
	flags.IntP("workers", "j", 0, "files processed in parallel (0 = number of CPUs)")
	flags.Bool("require-index", d.RequireIndex, "require a .csi or .tbi index next to each input")
	return map[string]string{
		"maf":           config.KeyMAFThreshold,
		"min-motif":     config.KeyMinMotif,
		"max-motif":     config.KeyMaxMotif,
		"min-repeat":    config.KeyMinRepeat,
		"workers":       config.KeyWorkers,
		"require-index": config.KeyRequireIndex,
	}
}
