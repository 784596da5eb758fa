// Package source opens scenario workbooks and hands their sheets to the
// extractor as grids. A Workbook reads xlsx files; Memory serves grids that
// were built elsewhere.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/tcg/scenario-sheets/internal/sheet"
)

var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrFileTooLarge  = errors.New("workbook exceeds maximum allowed size")
)

// MaxFileSize is the largest workbook accepted from a reader (20 MB).
const MaxFileSize = 20 * 1024 * 1024

// Source is a document with named sheets.
type Source interface {
	Sheets(ctx context.Context) ([]string, error)
	Grid(ctx context.Context, name string) (*sheet.Grid, error)
}

// Memory is a Source over grids already in memory. Sheets keep the order
// they were added in.
type Memory struct {
	grids []*sheet.Grid
}

func NewMemory(grids ...*sheet.Grid) *Memory {
	return &Memory{grids: grids}
}

func (m *Memory) Sheets(_ context.Context) ([]string, error) {
	names := make([]string, len(m.grids))
	for i, g := range m.grids {
		names[i] = g.Name()
	}
	return names, nil
}

func (m *Memory) Grid(_ context.Context, name string) (*sheet.Grid, error) {
	for _, g := range m.grids {
		if g.Name() == name {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}
