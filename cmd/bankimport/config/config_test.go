package config

import (
	"os"
	"path/filepath"
	"testing"

	"golang-bank-import-service/pkg/logger"
)

func TestReadRuntime(t *testing.T) {
	t.Setenv("SPREADSHEET_KEY", "sheet-key")
	t.Setenv("INPUT_PATH", "/data/downloads")
	t.Setenv("CUT_OFF_DATE", "2024-04-01")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/secrets/sa.json")

	runtime, err := ReadRuntime()
	if err != nil {
		t.Fatalf("ReadRuntime: %v", err)
	}

	if runtime.SpreadsheetKey != "sheet-key" {
		t.Errorf("SpreadsheetKey = %q", runtime.SpreadsheetKey)
	}
	if runtime.InputPath != "/data/downloads" {
		t.Errorf("InputPath = %q", runtime.InputPath)
	}
	if runtime.CutOffDate != "2024-04-01" {
		t.Errorf("CutOffDate = %q", runtime.CutOffDate)
	}
	if runtime.CredentialsFile != "/secrets/sa.json" {
		t.Errorf("CredentialsFile = %q", runtime.CredentialsFile)
	}
}

func TestParseCutoff(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		serial  int
		wantErr bool
	}{
		{name: "empty means no cutoff", value: "", serial: 0},
		{name: "valid date", value: "2024-04-01", serial: 45383},
		{name: "wrong layout", value: "01/04/2024", wantErr: true},
		{name: "not a date", value: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseCutoff(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCutoff(%q) succeeded, want error", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCutoff(%q): %v", tt.value, err)
			}
			if cfg.CutoffDate != tt.serial {
				t.Errorf("CutoffDate = %d, want %d", cfg.CutoffDate, tt.serial)
			}
		})
	}
}

func TestLoadConversions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversions.yml")
	content := `
periodStart: "04-06"
categories: [Groceries]
conversions:
  - format: moneyhub
    accounts: [Current]
    fields:
      - kind: date
        index: 0
        layout: "02/01/2006"
      - kind: identity
        index: 1
      - kind: constant
      - kind: amount_in
        index: 2
      - kind: amount_out
        index: 2
      - kind: derived_id
        indices: [0, 1, 2]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	registry, partitioner, err := LoadConversions(path, "")
	if err != nil {
		t.Fatalf("LoadConversions: %v", err)
	}

	if _, ok := registry.Converters("moneyhub", "Current"); !ok {
		t.Error("registry is missing the configured conversion")
	}

	// The UK tax-year boundary from the file, not the default.
	serialApril5 := 45387 // 2024-04-05
	if got := partitioner.Label(serialApril5); got != "Transactions 2023/2024" {
		t.Errorf("label for April 5 = %q, want Transactions 2023/2024", got)
	}
}

func TestLoadConversionsMissingFile(t *testing.T) {
	if _, _, err := LoadConversions(filepath.Join(t.TempDir(), "nope.yml"), ""); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCreateLoggerConfig(t *testing.T) {
	if cfg := CreateLoggerConfig(false); cfg.Level != logger.InfoLevel {
		t.Errorf("default level = %s", cfg.Level)
	}
	if cfg := CreateLoggerConfig(true); cfg.Level != logger.DebugLevel {
		t.Errorf("verbose level = %s", cfg.Level)
	}
}
