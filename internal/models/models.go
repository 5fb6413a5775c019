// Package models defines the canonical transaction record produced by the
// conversion pipeline and the spreadsheet serial-date arithmetic used for
// the Date field.
//
// A canonical record is an ordered, fixed-schema view of one bank
// transaction. Dates are stored as integer day counts since the spreadsheet
// epoch (1899-12-30) so they compare and sort numerically and render as
// dates in the ledger sheet. Amounts use decimal.Decimal; an absent amount
// is a nil pointer, never zero, so a genuine zero inflow can never collide
// with "no inflow".
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Epoch is the spreadsheet serial-date epoch: serial 0 is 1899-12-30.
var Epoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Columns is the ledger worksheet header row, in canonical field order.
var Columns = []string{
	"Account", "Date", "Description", "Type", "Money In", "Money Out",
	"Id", "Reconciled", "Category", "Notes",
}

// Indices of the canonical columns.
const (
	ColAccount = iota
	ColDate
	ColDescription
	ColType
	ColMoneyIn
	ColMoneyOut
	ColID
	ColReconciled
	ColCategory
	ColNotes
)

// SerialFromTime converts a time to its spreadsheet serial day count.
// Any time-of-day component is discarded.
func SerialFromTime(t time.Time) int {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(Epoch).Hours() / 24)
}

// TimeFromSerial converts a spreadsheet serial day count back to a UTC time.
func TimeFromSerial(serial int) time.Time {
	return Epoch.AddDate(0, 0, serial)
}

// Record is the canonical transaction record. MoneyIn and MoneyOut hold
// positive amounts; nil means the field is absent.
type Record struct {
	Account     string
	Date        int
	Description string
	Type        string
	MoneyIn     *decimal.Decimal
	MoneyOut    *decimal.Decimal
	ID          string
	Reconciled  string
	Category    string
	Notes       string
}

// Validate checks the canonical-record invariant: exactly one of MoneyIn and
// MoneyOut must be present. True zero-amount transactions are never imported.
func (r *Record) Validate() error {
	if r.MoneyIn == nil && r.MoneyOut == nil {
		return fmt.Errorf("record has neither money in nor money out")
	}
	if r.MoneyIn != nil && r.MoneyOut != nil {
		return fmt.Errorf("record has both money in and money out")
	}
	return nil
}

// Values returns the record as a sheet row in canonical column order.
// Absent amounts and empty strings become empty cells; Date stays numeric so
// the sheet renders it with the date format of the Date column.
func (r *Record) Values() []interface{} {
	row := make([]interface{}, len(Columns))
	row[ColAccount] = r.Account
	row[ColDate] = r.Date
	row[ColDescription] = r.Description
	row[ColType] = r.Type
	row[ColMoneyIn] = amountCell(r.MoneyIn)
	row[ColMoneyOut] = amountCell(r.MoneyOut)
	row[ColID] = r.ID
	row[ColReconciled] = r.Reconciled
	row[ColCategory] = r.Category
	row[ColNotes] = r.Notes
	return row
}

func amountCell(d *decimal.Decimal) interface{} {
	if d == nil {
		return ""
	}
	f, _ := d.Float64()
	return f
}

// String returns a compact representation used in logs.
func (r *Record) String() string {
	return fmt.Sprintf("Record{Account: %s, Date: %s, Id: %s}",
		r.Account, TimeFromSerial(r.Date).Format("2006-01-02"), r.ID)
}
