package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tcg/scenario-sheets/internal/sheet"
)

// Workbook is a Source backed by an xlsx file.
//
// Cells holding a formula are read as the formula text with a leading "=",
// which is how question rows point at patient info cells. Cached formula
// results are ignored.
type Workbook struct {
	f *excelize.File
}

func OpenFile(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{f: f}, nil
}

// OpenReader reads a workbook of at most MaxFileSize bytes.
func OpenReader(r io.Reader) (*Workbook, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &Workbook{f: f}, nil
}

func (w *Workbook) Close() error {
	return w.f.Close()
}

func (w *Workbook) Sheets(_ context.Context) ([]string, error) {
	return w.f.GetSheetList(), nil
}

func (w *Workbook) Grid(ctx context.Context, name string) (*sheet.Grid, error) {
	if idx, err := w.f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}

	rows, err := w.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	g := sheet.New(name)
	for r, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for c, raw := range row {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			v, err := w.cell(name, axis, raw)
			if err != nil {
				return nil, err
			}
			g.Set(r+1, c+1, v)
		}
	}
	return g, nil
}

func (w *Workbook) cell(name, axis, raw string) (sheet.Value, error) {
	formula, err := w.f.GetCellFormula(name, axis)
	if err != nil {
		return sheet.Value{}, fmt.Errorf("read formula %s!%s: %w", name, axis, err)
	}
	if formula != "" {
		return sheet.Text(sheet.RefMarker + strings.TrimPrefix(formula, sheet.RefMarker)), nil
	}
	if raw == "" {
		return sheet.Value{}, nil
	}

	typ, err := w.f.GetCellType(name, axis)
	if err != nil {
		return sheet.Value{}, fmt.Errorf("read cell type %s!%s: %w", name, axis, err)
	}
	switch typ {
	case excelize.CellTypeBool:
		return sheet.Bool(raw == "1" || strings.EqualFold(raw, "true")), nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeDate:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return sheet.Number(n), nil
		}
	}
	return sheet.Text(raw), nil
}
