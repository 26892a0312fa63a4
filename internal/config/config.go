// Package config holds the typed settings shared by the anonymize and
// verify commands and loads them through viper.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"

	"github.com/genomeprivacy/vcf-anony/internal/mask"
)

// AppName names the XDG config directory and the environment prefix.
const AppName = "vcf-anony"

// Defaults.
const (
	DefaultLevel        = mask.LevelHigh
	DefaultMAFThreshold = 0.01
	DefaultMinMotif     = 1
	DefaultMaxMotif     = 6
	DefaultMinRepeat    = 7
	DefaultReportDir    = "reports"
)

// Keys as they appear in the config file. Environment variables use the
// upper-cased key with a VCF_ANONY_ prefix.
const (
	KeyLevel        = "level"
	KeyMAFThreshold = "maf"
	KeyMinMotif     = "min_motif"
	KeyMaxMotif     = "max_motif"
	KeyMinRepeat    = "min_repeat"
	KeyWorkers      = "workers"
	KeyRequireIndex = "require_index"
	KeyReportDir    = "report_dir"
	KeyMarkdown     = "markdown"
	KeyDBPath       = "db_path"
)

// Config holds the settings for one run.
type Config struct {
	Level        string  `mapstructure:"level" yaml:"level"`
	MAFThreshold float64 `mapstructure:"maf" yaml:"maf"`
	MinMotif     int     `mapstructure:"min_motif" yaml:"min_motif"`
	MaxMotif     int     `mapstructure:"max_motif" yaml:"max_motif"`
	MinRepeat    int     `mapstructure:"min_repeat" yaml:"min_repeat"`

	// Workers bounds how many files are processed at once. Zero means NumCPU.
	Workers int `mapstructure:"workers" yaml:"workers"`

	// RequireIndex skips input files that have no .csi or .tbi next to them.
	RequireIndex bool `mapstructure:"require_index" yaml:"require_index"`

	ReportDir string `mapstructure:"report_dir" yaml:"report_dir"`

	// Markdown also writes a Markdown summary next to the CSV report.
	Markdown bool `mapstructure:"markdown" yaml:"markdown"`

	// DBPath enables the DuckDB outcome store when set.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// Default returns a Config populated with the default values.
func Default() *Config {
	return &Config{
		Level:        string(DefaultLevel),
		MAFThreshold: DefaultMAFThreshold,
		MinMotif:     DefaultMinMotif,
		MaxMotif:     DefaultMaxMotif,
		MinRepeat:    DefaultMinRepeat,
		Workers:      runtime.NumCPU(),
		RequireIndex: true,
		ReportDir:    DefaultReportDir,
	}
}

// Dir returns the XDG config directory, e.g. ~/.config/vcf-anony on Linux.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultPath returns the config file used when --config is not given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Validate checks the settings and returns the first problem found.
func (c *Config) Validate() error {
	if _, err := mask.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, c.Level)
	}
	if !(c.MAFThreshold > 0 && c.MAFThreshold <= 1) {
		return fmt.Errorf("%w: %v is outside (0, 1]", ErrInvalidThreshold, c.MAFThreshold)
	}
	if err := c.STR().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSTR, err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}
	return nil
}

// LevelValue returns the parsed level. Call Validate first.
func (c *Config) LevelValue() mask.Level {
	return mask.Level(c.Level)
}

// STR returns the repeat detector bounds.
func (c *Config) STR() mask.STRConfig {
	return mask.STRConfig{MinMotif: c.MinMotif, MaxMotif: c.MaxMotif, MinRepeat: c.MinRepeat}
}

// Policy returns the masking policy shared by anonymizer and verifier.
func (c *Config) Policy() mask.Policy {
	return mask.Policy{STR: c.STR(), MAFThreshold: c.MAFThreshold}
}
