package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// NewViper returns a viper instance carrying the defaults, VCF_ANONY_*
// environment bindings and the config file. An empty path means the XDG
// default, which may be absent; an explicit path must exist.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(strings.ReplaceAll(AppName, "-", "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if explicit {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return v, nil
		}
		return nil, fmt.Errorf("stat config: %w", err)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return v, nil
}

// SetDefaults registers every key with its default value so that
// environment variables are picked up for all of them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyLevel, d.Level)
	v.SetDefault(KeyMAFThreshold, d.MAFThreshold)
	v.SetDefault(KeyMinMotif, d.MinMotif)
	v.SetDefault(KeyMaxMotif, d.MaxMotif)
	v.SetDefault(KeyMinRepeat, d.MinRepeat)
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeyRequireIndex, d.RequireIndex)
	v.SetDefault(KeyReportDir, d.ReportDir)
	v.SetDefault(KeyMarkdown, d.Markdown)
	v.SetDefault(KeyDBPath, d.DBPath)
}

// Decode extracts and validates a Config from v.
func Decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// WriteValue stores key in the config file at path. Only the keys already in
// the file and key itself are written; defaults and environment values are
// left out.
func WriteValue(path, key string, value any) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
