// Package convert implements the field-conversion pipeline that turns raw
// bank CSV rows into canonical transaction records.
//
// Conversion is configured from data: each (format, account) pair maps to an
// ordered list of field converters, loaded once per run from YAML and
// immutable afterwards. Converters are a closed set of variants rather than
// runtime-named functions; the registry resolves each configured descriptor
// to a concrete converter at load time.
package convert

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"golang-bank-import-service/internal/models"
	imperrors "golang-bank-import-service/pkg/errors"

	"github.com/shopspring/decimal"
)

// Converter writes one canonical field of a record from a raw CSV row.
// Converters never mutate the row and carry only immutable parameters bound
// at registry-build time. A returned error is parse-category and causes the
// containing row to be skipped, not the batch to fail.
type Converter interface {
	Apply(row []string, rec *models.Record) error
}

// cell returns row[index], or a parse error when the row is too short.
func cell(row []string, index int) (string, error) {
	if index < 0 || index >= len(row) {
		return "", imperrors.New(imperrors.CategoryParse, imperrors.CodeShortRow,
			"row has no column at the configured index").
			WithContext("index", index).
			WithContext("columns", len(row))
	}
	return row[index], nil
}

// cellOrEmpty returns row[index] or "" when the row is too short. Used by
// converters whose source columns are optional.
func cellOrEmpty(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}

// setString assigns a value to one of the string-typed canonical columns.
func setString(rec *models.Record, column int, value string) {
	switch column {
	case models.ColAccount:
		rec.Account = value
	case models.ColDescription:
		rec.Description = value
	case models.ColType:
		rec.Type = value
	case models.ColID:
		rec.ID = value
	case models.ColReconciled:
		rec.Reconciled = value
	case models.ColCategory:
		rec.Category = value
	case models.ColNotes:
		rec.Notes = value
	}
}

// Identity copies a source column into a string-typed canonical column.
type Identity struct {
	Index  int
	Column int
}

func (c *Identity) Apply(row []string, rec *models.Record) error {
	value, err := cell(row, c.Index)
	if err != nil {
		return err
	}
	setString(rec, c.Column, value)
	return nil
}

// Constant ignores the row and stamps a fixed value, for example
// Reconciled = "x" or the injected account name.
type Constant struct {
	Value  string
	Column int
}

func (c *Constant) Apply(row []string, rec *models.Record) error {
	setString(rec, c.Column, c.Value)
	return nil
}

// Date parses a source column with a Go reference layout and stores the
// result as a spreadsheet serial day count. A value that does not match the
// layout is fatal for the containing row.
type Date struct {
	Index  int
	Layout string
}

func (c *Date) Apply(row []string, rec *models.Record) error {
	value, err := cell(row, c.Index)
	if err != nil {
		return err
	}

	t, err := time.Parse(c.Layout, value)
	if err != nil {
		return imperrors.Wrap(err, imperrors.CategoryParse, imperrors.CodeInvalidDate,
			"date does not match the configured layout").
			WithContext("value", value).
			WithContext("layout", c.Layout)
	}

	rec.Date = models.SerialFromTime(t)
	return nil
}

// SignedAmount splits a single signed amount column into an inflow or
// outflow. An outflow converter yields abs(min(amount, 0)); an inflow
// converter yields abs(max(amount, 0)). A result of zero is stored as
// absent, never as a zero amount.
type SignedAmount struct {
	Index int
	Out   bool
}

func (c *SignedAmount) Apply(row []string, rec *models.Record) error {
	value, err := cell(row, c.Index)
	if err != nil {
		return err
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return imperrors.Wrap(err, imperrors.CategoryParse, imperrors.CodeInvalidAmount,
			"amount is not a valid decimal").
			WithContext("value", value)
	}

	if c.Out {
		if amount.IsNegative() {
			v := amount.Abs()
			rec.MoneyOut = &v
		}
		return nil
	}

	if amount.IsPositive() {
		v := amount.Abs()
		rec.MoneyIn = &v
	}
	return nil
}

// SimpleAmount reads a dedicated inflow or outflow column that may be empty.
// An empty cell is stored as absent; a non-empty cell is stored as its
// absolute value.
type SimpleAmount struct {
	Index int
	Out   bool
}

func (c *SimpleAmount) Apply(row []string, rec *models.Record) error {
	value, err := cell(row, c.Index)
	if err != nil {
		return err
	}

	if value == "" {
		return nil
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return imperrors.Wrap(err, imperrors.CategoryParse, imperrors.CodeInvalidAmount,
			"amount is not a valid decimal").
			WithContext("value", value)
	}

	v := amount.Abs()
	if c.Out {
		rec.MoneyOut = &v
	} else {
		rec.MoneyIn = &v
	}
	return nil
}

// derivedIDLength is the hex length the content hash is truncated to. The
// shortened hash is a documented collision trade-off, not a uniqueness
// guarantee.
const derivedIDLength = 16

// DerivedID hashes the raw text of an ordered list of source columns into a
// short stable identifier, for formats that carry no native transaction
// reference. Identical rows always produce the same id; editing any
// contributing column produces a new id and the row is treated as a new
// transaction on the next import.
type DerivedID struct {
	Indices []int
}

func (c *DerivedID) Apply(row []string, rec *models.Record) error {
	digest := sha256.New()
	for _, index := range c.Indices {
		value, err := cell(row, index)
		if err != nil {
			return err
		}
		digest.Write([]byte(value))
	}

	rec.ID = hex.EncodeToString(digest.Sum(nil))[:derivedIDLength]
	return nil
}

// Category resolves the spending category from the notes and category
// columns via the category map. Missing source columns resolve to no
// category rather than an error.
type Category struct {
	NotesIndex    int
	CategoryIndex int
	Map           *CategoryMap
}

func (c *Category) Apply(row []string, rec *models.Record) error {
	notes := cellOrEmpty(row, c.NotesIndex)
	category := cellOrEmpty(row, c.CategoryIndex)
	rec.Category = c.Map.Resolve(notes, category)
	return nil
}
