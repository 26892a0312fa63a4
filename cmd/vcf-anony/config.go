package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/genomeprivacy/vcf-anony/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vcf-anony configuration",
		Long: "Show, get, or set configuration values. Config is stored in " + config.DefaultPath() +
			" unless --config is given. Environment variables VCF_ANONY_<KEY> override the file.",
		Example: `  vcf-anony config                  # show merged settings
  vcf-anony config set maf 0.05     # raise the MAF threshold
  vcf-anony config get level        # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(a, cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd(a))
	cmd.AddCommand(newConfigGetCmd(a))

	return cmd
}

func newConfigSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(a, cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(a, cmd, args[0])
		},
	}
}

func runConfigShow(a *app, cmd *cobra.Command) error {
	cfg, err := config.Decode(a.v)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", a.v.ConfigFileUsed(), out)
	return nil
}

func runConfigSet(a *app, cmd *cobra.Command, key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown key %q", key)
	}

	parsed := parseValue(value)

	// Reject values that would make every later run fail
	a.v.Set(key, parsed)
	if _, err := config.Decode(a.v); err != nil {
		return err
	}

	cfgFile := a.v.ConfigFileUsed()
	if cfgFile == "" {
		cfgFile = config.DefaultPath()
	}
	if err := config.WriteValue(cfgFile, key, parsed); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

// parseValue turns boolean-like and numeric strings into typed values.
func parseValue(value string) any {
	switch value {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

func runConfigGet(a *app, cmd *cobra.Command, key string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown key %q", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), a.v.Get(key))
	return nil
}

func isKnownKey(key string) bool {
	switch key {
	case config.KeyLevel, config.KeyMAFThreshold, config.KeyMinMotif, config.KeyMaxMotif,
		config.KeyMinRepeat, config.KeyWorkers, config.KeyRequireIndex, config.KeyReportDir,
		config.KeyMarkdown, config.KeyDBPath:
		return true
	}
	return false
}
