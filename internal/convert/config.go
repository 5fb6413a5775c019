package convert

import (
	"os"

	imperrors "golang-bank-import-service/pkg/errors"

	"dario.cat/mergo"
	"github.com/ghodss/yaml"
)

// Config is the on-disk conversion configuration: the canonical category
// set, extra category/tag aliases, and the per-(format, account) converter
// lists. It is loaded once per run and immutable thereafter.
type Config struct {
	// PeriodStart is the ledger period boundary as "MM-DD". Empty means the
	// default accounting-year start (April 1).
	PeriodStart string            `json:"periodStart,omitempty"`
	Categories  []string          `json:"categories"`
	Aliases     map[string]string `json:"aliases,omitempty"`
	Conversions []ConversionSpec  `json:"conversions"`
}

// ConversionSpec configures the converter list shared by one file format
// across the accounts it applies to.
type ConversionSpec struct {
	Format   string      `json:"format"`
	Accounts []string    `json:"accounts"`
	Fields   []FieldSpec `json:"fields"`
}

// LoadConfig reads and parses a conversion configuration file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, imperrors.ConfigError(imperrors.CodeMissingConfig,
			"cannot read conversion configuration", err).
			WithContext("path", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
			"cannot parse conversion configuration", err).
			WithContext("path", path)
	}

	return &cfg, nil
}

// LoadConfigWithOverride loads a base configuration and overlays an optional
// override file on top of it. Values present in the override win; everything
// else falls through to the base.
func LoadConfigWithOverride(basePath, overridePath string) (*Config, error) {
	base, err := LoadConfig(basePath)
	if err != nil {
		return nil, err
	}

	if overridePath == "" {
		return base, nil
	}

	override, err := LoadConfig(overridePath)
	if err != nil {
		return nil, err
	}

	if err := mergo.Merge(override, *base); err != nil {
		return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
			"cannot merge conversion configuration files", err).
			WithContext("base", basePath).
			WithContext("override", overridePath)
	}

	return override, nil
}
