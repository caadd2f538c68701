package valuation

import (
	"fmt"

	"exporttax/internal/workbook"
)

// Fixed layout of the km-calculation workbook: inputs go to E7-E9 on Ark1,
// the per-band trade prices are formula results on row 19, columns E-I.
const (
	InputSheet      = "Ark1"
	TradePriceCell  = "E7"
	NormKmCell      = "E8"
	CurrentKmCell   = "E9"
	tradePriceRow   = 19
)

// TradePrice reads the trade price for the given age from a formula-evaluated
// workbook snapshot and returns it with the selected band. The row-19 cells
// hold formula results computed from the E7-E9 inputs, so the snapshot must
// have been opened after those inputs were written and saved.
func TradePrice(snap *workbook.Snapshot, age int) (float64, AgeBand, error) {
	band := Band(age)
	cell := fmt.Sprintf("%s%d", band.Column, tradePriceRow)
	price, err := snap.Number(InputSheet, cell)
	if err != nil {
		return 0, band, fmt.Errorf("trade price for band %q: %w", band.Label, err)
	}
	return price, band, nil
}
