package quizbank

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/quizbank/discover"
	"github.com/brunobiangulo/quizbank/output"
)

// EnvPrefix prefixes every environment override, e.g. QUIZBANK_OUT_DIR.
const EnvPrefix = "QUIZBANK"

// Config holds all configuration for a conversion run.
type Config struct {
	// Dir is the directory searched for source files.
	Dir string `json:"dir" yaml:"dir" envconfig:"DIR"`

	// OutDir receives the output tables. Defaults to Dir.
	OutDir string `json:"out_dir" yaml:"out_dir" envconfig:"OUT_DIR"`

	// Source file naming convention
	Prefix     string   `json:"prefix" yaml:"prefix" envconfig:"PREFIX"`
	Extensions []string `json:"extensions" yaml:"extensions" envconfig:"EXTENSIONS"`

	// OutputFormat is "csv" (UTF-8 with BOM) or "xlsx".
	OutputFormat string `json:"output_format" yaml:"output_format" envconfig:"OUTPUT_FORMAT"`

	// Concurrency bounds how many files are converted at once (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" envconfig:"CONCURRENCY"`

	// AllSheets reads every worksheet instead of only the active one.
	AllSheets bool `json:"all_sheets" yaml:"all_sheets" envconfig:"ALL_SHEETS"`

	// DisabledFormats are treated as having no reader.
	DisabledFormats []string `json:"disabled_formats,omitempty" yaml:"disabled_formats,omitempty" envconfig:"DISABLED_FORMATS"`

	// DBPath enables the SQLite conversion ledger when set.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty" envconfig:"DB_PATH"`
}

// DefaultConfig returns a Config that converts the conventionally named files
// in the working directory to CSV next to them.
func DefaultConfig() Config {
	return Config{
		Dir:          ".",
		Prefix:       discover.DefaultPrefix,
		Extensions:   append([]string(nil), discover.DefaultExtensions...),
		OutputFormat: "csv",
		Concurrency:  1,
	}
}

// LoadConfig reads a YAML (or JSON) file over DefaultConfig. Keys absent from
// the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// ApplyEnv loads a .env file from the working directory if there is one and
// overrides cfg with any QUIZBANK_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: no input extensions", ErrInvalidConfig)
	}
	if _, err := output.WriterFor(c.OutputFormat); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) outDir() string {
	if c.OutDir != "" {
		return c.OutDir
	}
	if c.Dir != "" {
		return c.Dir
	}
	return "."
}

func (c *Config) discoverOptions() discover.Options {
	exts := make([]string, len(c.Extensions))
	for i, e := range c.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[i] = e
	}
	return discover.Options{Prefix: c.Prefix, Extensions: exts}
}
