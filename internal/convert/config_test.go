package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
periodStart: "04-01"
categories:
  - Groceries
  - Eating Out
aliases:
  "TRANSPORT FOR LONDON": Eating Out
conversions:
  - format: moneyhub
    accounts: [Current, Joint]
    fields:
      - kind: date
        index: 0
        layout: "02/01/2006"
      - kind: identity
        index: 1
      - kind: constant
        value: DEB
      - kind: amount_in
        index: 2
      - kind: amount_out
        index: 2
      - kind: derived_id
        indices: [0, 1, 2]
      - kind: constant
      - kind: category
        notesIndex: 4
        categoryIndex: 3
      - kind: identity
        index: 4
`

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfigFile(t, "conversions.yml", baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "04-01", cfg.PeriodStart)
	assert.Equal(t, []string{"Groceries", "Eating Out"}, cfg.Categories)
	assert.Equal(t, "Eating Out", cfg.Aliases["TRANSPORT FOR LONDON"])

	require.Len(t, cfg.Conversions, 1)
	spec := cfg.Conversions[0]
	assert.Equal(t, "moneyhub", spec.Format)
	assert.Equal(t, []string{"Current", "Joint"}, spec.Accounts)
	require.Len(t, spec.Fields, 9)
	assert.Equal(t, KindDate, spec.Fields[0].Kind)
	assert.Equal(t, "02/01/2006", spec.Fields[0].Layout)
	assert.Equal(t, []int{0, 1, 2}, spec.Fields[5].Indices)
	assert.Equal(t, 4, spec.Fields[7].NotesIndex)

	// The loaded config must build into a registry without further edits.
	_, err = BuildRegistry(cfg)
	require.NoError(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadConfigBadYAML(t *testing.T) {
	_, err := LoadConfig(writeConfigFile(t, "bad.yml", "categories: [unterminated"))
	assert.Error(t, err)
}

func TestLoadConfigWithOverride(t *testing.T) {
	base := writeConfigFile(t, "base.yml", baseYAML)
	override := writeConfigFile(t, "override.yml", `periodStart: "01-01"`)

	cfg, err := LoadConfigWithOverride(base, override)
	require.NoError(t, err)

	// Overridden value wins, everything else falls through to the base.
	assert.Equal(t, "01-01", cfg.PeriodStart)
	assert.Equal(t, []string{"Groceries", "Eating Out"}, cfg.Categories)
	require.Len(t, cfg.Conversions, 1)
}

func TestLoadConfigWithoutOverride(t *testing.T) {
	cfg, err := LoadConfigWithOverride(writeConfigFile(t, "base.yml", baseYAML), "")
	require.NoError(t, err)
	assert.Equal(t, "04-01", cfg.PeriodStart)
}
