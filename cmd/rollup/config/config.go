// Package config loads the rollup command configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/stdiopt/rollup/util/dagg"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Input formats.
const (
	FormatAuto    = "auto"
	FormatJSON    = "json"
	FormatZip     = "zip"
	FormatParquet = "parquet"
	FormatCSV     = "csv"
)

// Output formats.
const (
	OutputTree    = "tree"
	OutputRows    = "rows"
	OutputParquet = "parquet"
	OutputText    = "text"
	OutputCSV     = "csv"
)

// Config holds a reduction job.
type Config struct {
	// GroupKeys are the group attribute names, outermost first.
	GroupKeys []string `yaml:"group_keys"`
	// Reduce maps payload attributes to reducer kinds.
	Reduce map[string]string `yaml:"reduce"`
	// Default is the reducer kind applied to every payload attribute when
	// Reduce is empty.
	Default string `yaml:"default"`
	Workers int    `yaml:"workers"`
	Carry   bool   `yaml:"carry"`

	Input   string `yaml:"input"`
	Format  string `yaml:"format"`
	Pattern string `yaml:"pattern"` // file name pattern for zip and directory inputs
	// Select keeps only the listed record attributes, groups included.
	Select []string `yaml:"select,omitempty"`
	// Rename maps record attribute names to new names.
	Rename map[string]string `yaml:"rename,omitempty"`
	// Drop lists record attributes removed before flattening.
	Drop []string `yaml:"drop,omitempty"`

	Output       string `yaml:"output"`
	OutputFormat string `yaml:"output_format"`
	// Merge is a tree json file the reduction is merged into.
	Merge string `yaml:"merge"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Default:      dagg.KindSum.String(),
		Workers:      1,
		Input:        "-",
		Format:       FormatAuto,
		Pattern:      "*.json",
		Output:       "-",
		OutputFormat: OutputTree,
	}
}

// Load loads configuration from a YAML file, a missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("ROLLUP_INPUT"); v != "" {
		c.Input = v
	}
	if v := os.Getenv("ROLLUP_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("ROLLUP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ROLLUP_WORKERS %q: %w", v, err)
		}
		c.Workers = n
	}
	return nil
}

// RenameOrder returns the Rename keys sorted.
func (c *Config) RenameOrder() []string {
	names := make([]string, 0, len(c.Rename))
	for o := range c.Rename {
		names = append(names, o)
	}
	sort.Strings(names)
	return names
}

var (
	validFormats       = []string{FormatAuto, FormatJSON, FormatZip, FormatParquet, FormatCSV}
	validOutputFormats = []string{OutputTree, OutputRows, OutputParquet, OutputText, OutputCSV}
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.GroupKeys) == 0 {
		return fmt.Errorf("no group_keys configured")
	}
	seen := map[string]bool{}
	for _, k := range c.GroupKeys {
		if k == "" {
			return fmt.Errorf("empty group key")
		}
		if seen[k] {
			return fmt.Errorf("duplicate group key: %s", k)
		}
		seen[k] = true
	}

	fields := make([]string, 0, len(c.Reduce))
	for f := range c.Reduce {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if _, err := dagg.ParseKind(c.Reduce[f]); err != nil {
			return fmt.Errorf("reduce %s: %w", f, err)
		}
	}
	if len(c.Reduce) == 0 {
		if _, err := dagg.ParseKind(c.Default); err != nil {
			return fmt.Errorf("default: %w", err)
		}
	}
	for _, o := range c.RenameOrder() {
		if c.Rename[o] == "" {
			return fmt.Errorf("rename %s: empty name", o)
		}
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}
	if !slices.Contains(validFormats, c.Format) {
		return fmt.Errorf("invalid format: %s (valid: %v)", c.Format, validFormats)
	}
	if !slices.Contains(validOutputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output_format: %s (valid: %v)", c.OutputFormat, validOutputFormats)
	}
	if _, err := filepath.Match(c.Pattern, ""); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", c.Pattern, err)
	}
	return nil
}
