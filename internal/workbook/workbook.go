// Package workbook wraps open/read/write/save/close cycles over the fixed
// xlsx templates the calculator fills in. Two access modes exist: Update for
// writing cell values, and Snapshot for formula-evaluated reads.
//
// Read-after-write contract: a value written through Update is only visible
// to a Snapshot opened after Update has returned. A handle is exclusively
// owned while open; concurrent runs against the same file are unsupported.
package workbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Batch collects cell writes inside a single Update cycle.
type Batch struct {
	file *excelize.File
}

// Set writes a value to a cell, preserving the cell's existing style so the
// template's formatting survives repeated runs.
func (b *Batch) Set(sheet, cell string, value any) error {
	styleID, _ := b.file.GetCellStyle(sheet, cell)
	if err := b.file.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
	}
	if styleID > 0 {
		if err := b.file.SetCellStyle(sheet, cell, cell, styleID); err != nil {
			return fmt.Errorf("restore style on %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// Update opens the workbook at path, applies the writes made by fn, stamps
// full-calc-on-load so Excel recalculates every formula the next time the
// file is opened, then saves and closes. Each call is one complete
// open/write/save/close cycle; the file is mutated in place.
func Update(path string, fn func(*Batch) error) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open workbook %q: %w", path, err)
	}
	defer f.Close()

	if err := fn(&Batch{file: f}); err != nil {
		return err
	}

	recalc := true
	if err := f.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &recalc}); err != nil {
		return fmt.Errorf("set calc props on %q: %w", path, err)
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook %q: %w", path, err)
	}
	return nil
}

// Snapshot is a read-only, formula-evaluated view of a workbook.
type Snapshot struct {
	file *excelize.File
}

// Open opens a workbook for reading computed cell values.
func Open(path string) (*Snapshot, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	return &Snapshot{file: f}, nil
}

// Value returns the evaluated value of a cell. Formula cells are computed;
// when computation is not possible the stored (cached) value is returned.
func (s *Snapshot) Value(sheet, cell string) (string, error) {
	v, err := s.file.CalcCellValue(sheet, cell)
	if err == nil && v != "" {
		return v, nil
	}
	stored, serr := s.file.GetCellValue(sheet, cell)
	if serr != nil {
		return "", fmt.Errorf("read %s!%s: %w", sheet, cell, serr)
	}
	return stored, nil
}

// Number returns the evaluated value of a cell as a float64. A comma decimal
// separator is accepted, matching the template's locale.
func (s *Snapshot) Number(sheet, cell string) (float64, error) {
	v, err := s.Value(sheet, cell)
	if err != nil {
		return 0, err
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, fmt.Errorf("cell %s!%s is empty", sheet, cell)
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("cell %s!%s: %w", sheet, cell, err)
	}
	return n, nil
}

// Close releases the workbook handle.
func (s *Snapshot) Close() error {
	return s.file.Close()
}
