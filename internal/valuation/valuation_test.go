package valuation

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"exporttax/internal/workbook"
)

func TestAgeYears(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		registration time.Time
		want         int
	}{
		{"same day", now, 0},
		{"half a year", now.AddDate(0, -6, 0), 0},
		{"just under a year", now.AddDate(0, 0, -364), 0},
		{"exactly 365 days", now.AddDate(0, 0, -365), 1},
		{"three years and change", now.AddDate(-3, 0, -20), 3},
		{"a decade", now.AddDate(0, 0, -3650), 10},
		{"future registration", now.AddDate(1, 0, 0), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeYears(tt.registration, now))
		})
	}
}

func TestAgeYears_MonotoneInRegistrationDate(t *testing.T) {
	// Older registration date must never yield a smaller age.
	now := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	prev := AgeYears(now, now)
	for days := 1; days <= 4000; days += 7 {
		age := AgeYears(now.AddDate(0, 0, -days), now)
		require.GreaterOrEqual(t, age, prev, "age decreased at %d days", days)
		prev = age
	}
}

func TestBand_Boundaries(t *testing.T) {
	tests := []struct {
		age        int
		wantLabel  string
		wantColumn string
	}{
		{-2, "0-1 år", "E"},
		{0, "0-1 år", "E"},
		{1, "1-2 år", "F"},
		{2, "2-3 år", "G"},
		{3, "3-9 år", "H"},
		{9, "3-9 år", "H"},
		{10, "Over 10 år", "I"},
		{42, "Over 10 år", "I"},
	}
	for _, tt := range tests {
		band := Band(tt.age)
		assert.Equal(t, tt.wantLabel, band.Label, "age %d", tt.age)
		assert.Equal(t, tt.wantColumn, band.Column, "age %d", tt.age)
	}
}

func TestBand_ExhaustiveAndExclusive(t *testing.T) {
	labels := map[string]bool{
		"0-1 år": true, "1-2 år": true, "2-3 år": true, "3-9 år": true, "Over 10 år": true,
	}
	for age := -5; age <= 50; age++ {
		band := Band(age)
		assert.True(t, labels[band.Label], "age %d produced unknown band %q", age, band.Label)
	}
}

// createKmWorkbook builds a minimal Ark1 with literal trade prices on row 19.
func createKmWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", InputSheet))
	prices := map[string]float64{
		"E19": 100, "F19": 90, "G19": 80, "H19": 70, "I19": 60,
	}
	for cell, v := range prices {
		require.NoError(t, f.SetCellValue(InputSheet, cell, v))
	}

	path := filepath.Join(t.TempDir(), "km.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestTradePrice_SelectsBandColumn(t *testing.T) {
	path := createKmWorkbook(t)

	snap, err := workbook.Open(path)
	require.NoError(t, err)
	defer snap.Close()

	price, band, err := TradePrice(snap, 5)
	require.NoError(t, err)
	assert.Equal(t, "3-9 år", band.Label)
	assert.Equal(t, 70.0, price)

	price, band, err = TradePrice(snap, 0)
	require.NoError(t, err)
	assert.Equal(t, "0-1 år", band.Label)
	assert.Equal(t, 100.0, price)
}

func TestTradePrice_ComputedFromInputs(t *testing.T) {
	// Row 19 in the real template holds formula results that depend on the
	// E7-E9 inputs; the read is only valid on a snapshot opened after those
	// inputs were saved.
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", InputSheet))
	require.NoError(t, f.SetCellFormula(InputSheet, "H19", "=E7-(E9-E8)*0.1"))
	path := filepath.Join(t.TempDir(), "km.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	err := workbook.Update(path, func(b *workbook.Batch) error {
		if err := b.Set(InputSheet, TradePriceCell, 95000.0); err != nil {
			return err
		}
		if err := b.Set(InputSheet, NormKmCell, 60000.0); err != nil {
			return err
		}
		return b.Set(InputSheet, CurrentKmCell, 85000.0)
	})
	require.NoError(t, err)

	snap, err := workbook.Open(path)
	require.NoError(t, err)
	defer snap.Close()

	price, band, err := TradePrice(snap, 4)
	require.NoError(t, err)
	assert.Equal(t, "3-9 år", band.Label)
	assert.InDelta(t, 92500.0, price, 0.001)
}

func TestTradePrice_EmptyCell(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", InputSheet))
	path := filepath.Join(t.TempDir(), "km.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	snap, err := workbook.Open(path)
	require.NoError(t, err)
	defer snap.Close()

	_, _, err = TradePrice(snap, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1-2 år")
}
