package convert

import (
	"testing"

	"golang-bank-import-service/internal/models"
	imperrors "golang-bank-import-service/pkg/errors"

	"github.com/shopspring/decimal"
)

func testConfig() *Config {
	return &Config{
		Categories: []string{"Groceries", "Eating Out"},
		Conversions: []ConversionSpec{
			{
				Format:   "moneyhub",
				Accounts: []string{"Current", "Joint"},
				Fields: []FieldSpec{
					{Kind: KindDate, Index: 0, Layout: "02/01/2006"},
					{Kind: KindIdentity, Index: 1},
					{Kind: KindConstant, Value: "DEB"},
					{Kind: KindAmountIn, Index: 2},
					{Kind: KindAmountOut, Index: 2},
					{Kind: KindDerivedID, Indices: []int{0, 1, 2}},
					{Kind: KindConstant, Value: ""},
					{Kind: KindCategory, NotesIndex: 4, CategoryIndex: 3},
					{Kind: KindIdentity, Index: 4},
				},
			},
		},
	}
}

func TestBuildRegistry(t *testing.T) {
	registry, err := BuildRegistry(testConfig())
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}

	for _, account := range []string{"Current", "Joint"} {
		if _, ok := registry.Converters("moneyhub", account); !ok {
			t.Errorf("missing converters for account %s", account)
		}
	}

	if _, ok := registry.Converters("moneyhub", "Savings"); ok {
		t.Error("unexpected converters for unconfigured account")
	}
}

func TestRowConvertersInjectsAccount(t *testing.T) {
	registry, err := BuildRegistry(testConfig())
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}

	converters, err := registry.RowConverters("moneyhub", "Current")
	if err != nil {
		t.Fatalf("RowConverters: %v", err)
	}

	record := &models.Record{}
	row := []string{"01/04/2024", "COFFEE SHOP", "-2.50", "", "lunch #eatingout"}
	for _, c := range converters {
		if err := c.Apply(row, record); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	if record.Account != "Current" {
		t.Errorf("account = %q, want Current", record.Account)
	}
	if record.Description != "COFFEE SHOP" {
		t.Errorf("description = %q", record.Description)
	}
	if record.Type != "DEB" {
		t.Errorf("type = %q", record.Type)
	}
	if record.MoneyIn != nil {
		t.Errorf("money in = %v, want absent", record.MoneyIn)
	}
	if record.MoneyOut == nil || !record.MoneyOut.Equal(decimal.NewFromFloat(2.5)) {
		t.Errorf("money out = %v, want 2.5", record.MoneyOut)
	}
	if record.Category != "Eating Out" {
		t.Errorf("category = %q", record.Category)
	}
	if len(record.ID) != 16 {
		t.Errorf("id = %q, want 16 hex characters", record.ID)
	}
}

func TestRowConvertersUnknownKey(t *testing.T) {
	registry, err := BuildRegistry(testConfig())
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}

	_, err = registry.RowConverters("unknownbank", "Current")
	impErr, ok := imperrors.AsImportError(err)
	if !ok {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if impErr.Code != imperrors.CodeUnknownFormat {
		t.Errorf("code = %s, want %s", impErr.Code, imperrors.CodeUnknownFormat)
	}
	if impErr.Recoverable() {
		t.Error("unknown format must abort the run, not skip rows")
	}
}

func TestBuildRegistryRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   imperrors.Code
	}{
		{
			name:   "unknown kind",
			mutate: func(c *Config) { c.Conversions[0].Fields[0].Kind = "magic" },
			code:   imperrors.CodeUnknownConverter,
		},
		{
			name:   "date outside date column",
			mutate: func(c *Config) { c.Conversions[0].Fields[1].Kind = KindDate; c.Conversions[0].Fields[1].Layout = "2006" },
			code:   imperrors.CodeInvalidConfig,
		},
		{
			name:   "date without layout",
			mutate: func(c *Config) { c.Conversions[0].Fields[0].Layout = "" },
			code:   imperrors.CodeInvalidConfig,
		},
		{
			name:   "identity in money column",
			mutate: func(c *Config) { c.Conversions[0].Fields[3].Kind = KindIdentity },
			code:   imperrors.CodeInvalidConfig,
		},
		{
			name:   "derived id without indices",
			mutate: func(c *Config) { c.Conversions[0].Fields[5].Indices = nil },
			code:   imperrors.CodeInvalidConfig,
		},
		{
			name:   "no fields",
			mutate: func(c *Config) { c.Conversions[0].Fields = nil },
			code:   imperrors.CodeInvalidConfig,
		},
		{
			name: "too many fields",
			mutate: func(c *Config) {
				for len(c.Conversions[0].Fields) < len(models.Columns) {
					c.Conversions[0].Fields = append(c.Conversions[0].Fields,
						FieldSpec{Kind: KindConstant})
				}
			},
			code: imperrors.CodeInvalidConfig,
		},
		{
			name:   "no accounts",
			mutate: func(c *Config) { c.Conversions[0].Accounts = nil },
			code:   imperrors.CodeInvalidConfig,
		},
		{
			name: "duplicate key",
			mutate: func(c *Config) {
				c.Conversions = append(c.Conversions, c.Conversions[0])
			},
			code: imperrors.CodeInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			_, err := BuildRegistry(cfg)
			impErr, ok := imperrors.AsImportError(err)
			if !ok {
				t.Fatalf("expected ImportError, got %v", err)
			}
			if impErr.Code != tt.code {
				t.Errorf("code = %s, want %s", impErr.Code, tt.code)
			}
		})
	}
}
