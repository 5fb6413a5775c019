// Package config assembles the importer's runtime configuration from the
// environment, CLI flags, and the conversion configuration file.
package config

import (
	"time"

	"golang-bank-import-service/internal/convert"
	"golang-bank-import-service/internal/importer"
	"golang-bank-import-service/internal/ledger"
	"golang-bank-import-service/internal/models"
	imperrors "golang-bank-import-service/pkg/errors"
	"golang-bank-import-service/pkg/logger"

	"github.com/caarlos0/env/v6"
)

// Runtime carries the environment-provided settings. Flags with the same
// meaning take precedence over these.
type Runtime struct {
	// SpreadsheetKey identifies the target Google spreadsheet.
	SpreadsheetKey string `env:"SPREADSHEET_KEY"`
	// InputPath is the root of the bank-export directory tree.
	InputPath string `env:"INPUT_PATH"`
	// CutOffDate is the inclusive import lower bound as YYYY-MM-DD.
	CutOffDate string `env:"CUT_OFF_DATE"`
	// CredentialsFile points at a Google service-account key file. Empty
	// means Application Default Credentials.
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
}

// ReadRuntime parses the runtime settings from the environment.
func ReadRuntime() (*Runtime, error) {
	runtime := &Runtime{}
	if err := env.Parse(runtime); err != nil {
		return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
			"cannot parse environment configuration", err)
	}
	return runtime, nil
}

// LoadConversions loads the conversion configuration, overlaying an
// optional override file, and builds the registry and partitioner from it.
func LoadConversions(path, overridePath string) (*convert.Registry, *ledger.Partitioner, error) {
	cfg, err := convert.LoadConfigWithOverride(path, overridePath)
	if err != nil {
		return nil, nil, err
	}

	registry, err := convert.BuildRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}

	partitioner, err := ledger.ParsePeriodStart(cfg.PeriodStart)
	if err != nil {
		return nil, nil, err
	}

	return registry, partitioner, nil
}

// ParseCutoff converts a YYYY-MM-DD cutoff into an importer configuration.
// An empty value means no cutoff.
func ParseCutoff(value string) (*importer.Config, error) {
	cfg := importer.DefaultConfig()
	if value == "" {
		return cfg, nil
	}

	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
			"cutoff date must be YYYY-MM-DD", err).
			WithContext("value", value)
	}

	cfg.CutoffDate = models.SerialFromTime(t)
	return cfg, nil
}

// CreateLoggerConfig returns the logger configuration for a CLI run.
func CreateLoggerConfig(verbose bool) *logger.Config {
	cfg := logger.DefaultConfig()
	if verbose {
		cfg.Level = logger.DebugLevel
	}
	return cfg
}
