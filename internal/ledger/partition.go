// Package ledger maps transaction dates to the period-scoped ledger they
// belong to.
//
// A ledger covers one accounting year running from a fixed period-start
// month/day (April 1 by default) to the day before the next period start.
// The partition label is a pure function of the transaction date; no
// external state is consulted.
package ledger

import (
	"fmt"
	"time"

	"golang-bank-import-service/internal/models"
	imperrors "golang-bank-import-service/pkg/errors"
)

// Default accounting-year boundary.
const (
	DefaultStartMonth = time.April
	DefaultStartDay   = 1
)

// labelFormat produces names like "Transactions 2024/2025".
const labelFormat = "Transactions %d/%d"

// Partitioner assigns transaction dates to ledger labels.
type Partitioner struct {
	startMonth time.Month
	startDay   int
}

// NewPartitioner creates a partitioner with the given period-start boundary.
func NewPartitioner(month time.Month, day int) (*Partitioner, error) {
	if month < time.January || month > time.December {
		return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
			fmt.Sprintf("invalid period start month %d", month), nil)
	}
	if day < 1 || day > 31 {
		return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
			fmt.Sprintf("invalid period start day %d", day), nil)
	}

	return &Partitioner{startMonth: month, startDay: day}, nil
}

// DefaultPartitioner returns a partitioner with the April 1 boundary.
func DefaultPartitioner() *Partitioner {
	return &Partitioner{startMonth: DefaultStartMonth, startDay: DefaultStartDay}
}

// ParsePeriodStart parses an "MM-DD" period boundary from configuration.
// An empty value yields the default boundary.
func ParsePeriodStart(value string) (*Partitioner, error) {
	if value == "" {
		return DefaultPartitioner(), nil
	}

	t, err := time.Parse("01-02", value)
	if err != nil {
		return nil, imperrors.ConfigError(imperrors.CodeInvalidConfig,
			fmt.Sprintf("period start %q is not in MM-DD form", value), err)
	}

	return NewPartitioner(t.Month(), t.Day())
}

// Label returns the ledger label covering a spreadsheet serial date. A date
// before the period start of its calendar year belongs to the partition
// starting the previous year; a date on or after it belongs to the partition
// starting its own year.
func (p *Partitioner) Label(serial int) string {
	date := models.TimeFromSerial(serial)
	year := date.Year()

	start := time.Date(year, p.startMonth, p.startDay, 0, 0, 0, 0, time.UTC)
	if date.Before(start) {
		year--
	}

	return fmt.Sprintf(labelFormat, year, year+1)
}
