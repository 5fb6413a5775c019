package ledger

import (
	"testing"
	"time"

	"golang-bank-import-service/internal/models"
)

func serial(year int, month time.Month, day int) int {
	return models.SerialFromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

func TestPartitionerLabel(t *testing.T) {
	partitioner := DefaultPartitioner()

	tests := []struct {
		name  string
		date  int
		label string
	}{
		{
			name:  "day before period start",
			date:  serial(2024, time.March, 31),
			label: "Transactions 2023/2024",
		},
		{
			name:  "on period start",
			date:  serial(2024, time.April, 1),
			label: "Transactions 2024/2025",
		},
		{
			name:  "mid period",
			date:  serial(2024, time.October, 15),
			label: "Transactions 2024/2025",
		},
		{
			name:  "january belongs to previous period",
			date:  serial(2025, time.January, 2),
			label: "Transactions 2024/2025",
		},
		{
			name:  "last day of period",
			date:  serial(2025, time.March, 31),
			label: "Transactions 2024/2025",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := partitioner.Label(tt.date)
			if got != tt.label {
				t.Errorf("Label(%d) = %q, want %q", tt.date, got, tt.label)
			}
		})
	}
}

func TestPartitionerCustomBoundary(t *testing.T) {
	partitioner, err := NewPartitioner(time.January, 1)
	if err != nil {
		t.Fatalf("NewPartitioner: %v", err)
	}

	// Calendar-year partitioning: December and January land in different
	// ledgers.
	if got := partitioner.Label(serial(2024, time.December, 31)); got != "Transactions 2024/2025" {
		t.Errorf("december label = %q", got)
	}
	if got := partitioner.Label(serial(2025, time.January, 1)); got != "Transactions 2025/2026" {
		t.Errorf("january label = %q", got)
	}
}

func TestNewPartitionerRejectsBadBoundaries(t *testing.T) {
	if _, err := NewPartitioner(time.Month(0), 1); err == nil {
		t.Error("expected error for month 0")
	}
	if _, err := NewPartitioner(time.Month(13), 1); err == nil {
		t.Error("expected error for month 13")
	}
	if _, err := NewPartitioner(time.April, 0); err == nil {
		t.Error("expected error for day 0")
	}
	if _, err := NewPartitioner(time.April, 32); err == nil {
		t.Error("expected error for day 32")
	}
}

func TestParsePeriodStart(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
		month   time.Month
		day     int
	}{
		{name: "empty means default", value: "", month: time.April, day: 1},
		{name: "explicit boundary", value: "07-06", month: time.July, day: 6},
		{name: "calendar year", value: "01-01", month: time.January, day: 1},
		{name: "not a date", value: "13-40", wantErr: true},
		{name: "wrong shape", value: "April 1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			partitioner, err := ParsePeriodStart(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePeriodStart(%q) succeeded, want error", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePeriodStart(%q): %v", tt.value, err)
			}
			if partitioner.startMonth != tt.month || partitioner.startDay != tt.day {
				t.Errorf("ParsePeriodStart(%q) = %v/%d, want %v/%d",
					tt.value, partitioner.startMonth, partitioner.startDay, tt.month, tt.day)
			}
		})
	}
}
