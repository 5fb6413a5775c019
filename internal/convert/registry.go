package convert

import (
	"fmt"

	"golang-bank-import-service/internal/models"
	imperrors "golang-bank-import-service/pkg/errors"
)

// Kind names a converter variant in the conversion configuration.
type Kind string

const (
	KindIdentity  Kind = "identity"
	KindConstant  Kind = "constant"
	KindDate      Kind = "date"
	KindAmount    Kind = "amount"
	KindAmountIn  Kind = "amount_in"
	KindAmountOut Kind = "amount_out"
	KindDerivedID Kind = "derived_id"
	KindCategory  Kind = "category"
)

// FieldSpec is one converter descriptor in the conversion configuration.
// The descriptor's position in its list determines which canonical column it
// fills: the i-th descriptor fills column i+1, with Account injected at
// position 0 by the aggregator.
type FieldSpec struct {
	Kind          Kind   `json:"kind"`
	Index         int    `json:"index"`
	Value         string `json:"value"`
	Layout        string `json:"layout"`
	Indices       []int  `json:"indices"`
	NotesIndex    int    `json:"notesIndex"`
	CategoryIndex int    `json:"categoryIndex"`
}

// Key identifies a conversion by source file format and account name, both
// taken from the source file's directory position.
type Key struct {
	Format  string
	Account string
}

// Registry maps (format, account) keys to the ordered converter lists that
// produce canonical records. It is built once at startup and immutable for
// the run's duration.
type Registry struct {
	converters map[Key][]Converter
	categories *CategoryMap
}

// BuildRegistry resolves every configured descriptor to a concrete converter.
// All configuration problems surface here, before any source file is read.
func BuildRegistry(cfg *Config) (*Registry, error) {
	if cfg == nil {
		return nil, imperrors.ConfigError(imperrors.CodeMissingConfig,
			"conversion configuration is required", nil)
	}

	categories, err := NewCategoryMap(cfg.Categories, cfg.Aliases)
	if err != nil {
		return nil, err
	}

	registry := &Registry{
		converters: make(map[Key][]Converter),
		categories: categories,
	}

	for _, spec := range cfg.Conversions {
		if spec.Format == "" || len(spec.Accounts) == 0 {
			return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
				"conversion needs a format and at least one account", nil).
				WithContext("format", spec.Format)
		}

		converters, err := registry.buildFields(spec)
		if err != nil {
			return nil, err
		}

		for _, account := range spec.Accounts {
			key := Key{Format: spec.Format, Account: account}
			if _, exists := registry.converters[key]; exists {
				return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
					"duplicate conversion for format and account", nil).
					WithContext("format", key.Format).
					WithContext("account", key.Account)
			}
			registry.converters[key] = converters
		}
	}

	return registry, nil
}

// Converters returns the configured converter list for a source key.
func (r *Registry) Converters(format, account string) ([]Converter, bool) {
	converters, ok := r.converters[Key{Format: format, Account: account}]
	return converters, ok
}

// RowConverters returns the full converter list for a source file: a
// constant injecting the account name, followed by the configured list.
func (r *Registry) RowConverters(format, account string) ([]Converter, error) {
	configured, ok := r.Converters(format, account)
	if !ok {
		return nil, imperrors.ConfigError(imperrors.CodeUnknownFormat,
			"no conversion configured for this format and account", nil).
			WithContext("format", format).
			WithContext("account", account)
	}

	converters := make([]Converter, 0, len(configured)+1)
	converters = append(converters, &Constant{Value: account, Column: models.ColAccount})
	return append(converters, configured...), nil
}

// buildFields resolves the positional descriptor list of one conversion.
func (r *Registry) buildFields(spec ConversionSpec) ([]Converter, error) {
	if len(spec.Fields) == 0 {
		return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
			"conversion has no field descriptors", nil).
			WithContext("format", spec.Format)
	}
	if len(spec.Fields) > len(models.Columns)-1 {
		return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
			fmt.Sprintf("conversion has %d field descriptors, at most %d fit the canonical columns",
				len(spec.Fields), len(models.Columns)-1), nil).
			WithContext("format", spec.Format)
	}

	converters := make([]Converter, 0, len(spec.Fields))
	for position, field := range spec.Fields {
		// Account occupies column 0, so descriptors start at column 1.
		column := position + 1

		converter, err := buildField(field, column, r.categories)
		if err != nil {
			if impErr, ok := imperrors.AsImportError(err); ok {
				impErr.WithContext("format", spec.Format).WithContext("position", position)
			}
			return nil, err
		}
		converters = append(converters, converter)
	}

	return converters, nil
}

// buildField resolves one descriptor against its target column, rejecting
// kind/column combinations that could not type-check at conversion time.
func buildField(field FieldSpec, column int, categories *CategoryMap) (Converter, error) {
	switch field.Kind {
	case KindIdentity:
		if !isStringColumn(column) {
			return nil, columnError(field.Kind, column)
		}
		return &Identity{Index: field.Index, Column: column}, nil

	case KindConstant:
		if !isStringColumn(column) {
			return nil, columnError(field.Kind, column)
		}
		return &Constant{Value: field.Value, Column: column}, nil

	case KindDate:
		if column != models.ColDate {
			return nil, columnError(field.Kind, column)
		}
		if field.Layout == "" {
			return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
				"date converter needs a layout", nil)
		}
		return &Date{Index: field.Index, Layout: field.Layout}, nil

	case KindAmount:
		if column != models.ColMoneyIn && column != models.ColMoneyOut {
			return nil, columnError(field.Kind, column)
		}
		return &SimpleAmount{Index: field.Index, Out: column == models.ColMoneyOut}, nil

	case KindAmountIn:
		if column != models.ColMoneyIn {
			return nil, columnError(field.Kind, column)
		}
		return &SignedAmount{Index: field.Index, Out: false}, nil

	case KindAmountOut:
		if column != models.ColMoneyOut {
			return nil, columnError(field.Kind, column)
		}
		return &SignedAmount{Index: field.Index, Out: true}, nil

	case KindDerivedID:
		if column != models.ColID {
			return nil, columnError(field.Kind, column)
		}
		if len(field.Indices) == 0 {
			return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
				"derived_id converter needs at least one source index", nil)
		}
		indices := make([]int, len(field.Indices))
		copy(indices, field.Indices)
		return &DerivedID{Indices: indices}, nil

	case KindCategory:
		if column != models.ColCategory {
			return nil, columnError(field.Kind, column)
		}
		return &Category{
			NotesIndex:    field.NotesIndex,
			CategoryIndex: field.CategoryIndex,
			Map:           categories,
		}, nil

	default:
		return nil, imperrors.ConfigError(imperrors.CodeUnknownConverter,
			fmt.Sprintf("unknown converter kind %q", field.Kind), nil)
	}
}

// isStringColumn reports whether a canonical column holds plain text.
func isStringColumn(column int) bool {
	switch column {
	case models.ColDate, models.ColMoneyIn, models.ColMoneyOut:
		return false
	default:
		return true
	}
}

func columnError(kind Kind, column int) error {
	return imperrors.ConfigError(imperrors.CodeInvalidConfig,
		fmt.Sprintf("converter kind %q cannot fill the %s column", kind, models.Columns[column]), nil)
}
