package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSerialFromTime(t *testing.T) {
	tests := []struct {
		name   string
		input  time.Time
		serial int
	}{
		{
			name:   "epoch",
			input:  time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC),
			serial: 0,
		},
		{
			name:   "day after epoch",
			input:  time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC),
			serial: 1,
		},
		{
			name:   "known spreadsheet serial",
			input:  time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			serial: 45383,
		},
		{
			name:   "time of day discarded",
			input:  time.Date(2024, 4, 1, 23, 59, 59, 0, time.UTC),
			serial: 45383,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SerialFromTime(tt.input)
			if got != tt.serial {
				t.Errorf("SerialFromTime(%v) = %d, want %d", tt.input, got, tt.serial)
			}
		})
	}
}

func TestSerialRoundTrip(t *testing.T) {
	dates := []time.Time{
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}

	for _, date := range dates {
		serial := SerialFromTime(date)
		back := TimeFromSerial(serial)
		if !back.Equal(date) {
			t.Errorf("round trip of %v through serial %d gave %v", date, serial, back)
		}
	}
}

func TestRecordValidate(t *testing.T) {
	in := decimal.NewFromFloat(10.50)
	out := decimal.NewFromFloat(3.20)

	tests := []struct {
		name    string
		record  Record
		wantErr bool
	}{
		{
			name:    "money in only",
			record:  Record{MoneyIn: &in},
			wantErr: false,
		},
		{
			name:    "money out only",
			record:  Record{MoneyOut: &out},
			wantErr: false,
		},
		{
			name:    "neither amount",
			record:  Record{},
			wantErr: true,
		},
		{
			name:    "both amounts",
			record:  Record{MoneyIn: &in, MoneyOut: &out},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecordValues(t *testing.T) {
	out := decimal.NewFromFloat(12.34)
	record := &Record{
		Account:     "Current",
		Date:        45383,
		Description: "COFFEE SHOP",
		Type:        "DEB",
		MoneyOut:    &out,
		ID:          "abc123",
		Reconciled:  "",
		Category:    "Eating Out",
		Notes:       "",
	}

	values := record.Values()
	if len(values) != len(Columns) {
		t.Fatalf("Values() returned %d cells, want %d", len(values), len(Columns))
	}

	if values[ColAccount] != "Current" {
		t.Errorf("account cell = %v", values[ColAccount])
	}
	if values[ColDate] != 45383 {
		t.Errorf("date cell = %v, want numeric serial", values[ColDate])
	}
	if values[ColMoneyIn] != "" {
		t.Errorf("absent money in should be an empty cell, got %v", values[ColMoneyIn])
	}
	if values[ColMoneyOut] != 12.34 {
		t.Errorf("money out cell = %v, want 12.34", values[ColMoneyOut])
	}
	if values[ColCategory] != "Eating Out" {
		t.Errorf("category cell = %v", values[ColCategory])
	}
}
