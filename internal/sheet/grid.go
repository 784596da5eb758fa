package sheet

import (
	"fmt"
	"sort"
)

// Coord addresses one cell. Rows and columns start at 1.
type Coord struct {
	Row int
	Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("%s%d", ColumnName(c.Col), c.Row)
}

// Grid is a sparse worksheet. Reads outside the populated area return empty
// cells, so scanners never need to bounds-check.
type Grid struct {
	name   string
	cells  map[Coord]Value
	maxRow int
	maxCol int
}

// New returns an empty grid for the named sheet.
func New(name string) *Grid {
	return &Grid{name: name, cells: make(map[Coord]Value)}
}

// FromValues builds a grid from row-major values where rows[0] is row 1.
// Accepted element types are nil, string, bool, int, int64, float64 and Value.
func FromValues(name string, rows [][]interface{}) (*Grid, error) {
	g := New(name)
	for r, row := range rows {
		for c, raw := range row {
			v, err := valueOf(raw)
			if err != nil {
				return nil, fmt.Errorf("sheet %q %s: %w", name, Coord{Row: r + 1, Col: c + 1}, err)
			}
			g.Set(r+1, c+1, v)
		}
	}
	return g, nil
}

func valueOf(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return x, nil
	case string:
		return Text(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case float64:
		return Number(x), nil
	default:
		return Value{}, fmt.Errorf("unsupported cell type %T", raw)
	}
}

// Name returns the sheet name.
func (g *Grid) Name() string { return g.name }

// MaxRow returns the last populated row.
func (g *Grid) MaxRow() int { return g.maxRow }

// MaxCol returns the last populated column.
func (g *Grid) MaxCol() int { return g.maxCol }

// Cell returns the value at (row, col).
func (g *Grid) Cell(row, col int) Value {
	return g.cells[Coord{Row: row, Col: col}]
}

// Set stores v at (row, col). Storing an empty cell removes it but keeps the
// grid dimensions, mirroring how a cleared spreadsheet cell behaves.
func (g *Grid) Set(row, col int, v Value) {
	if row < 1 || col < 1 {
		return
	}
	key := Coord{Row: row, Col: col}
	if v.Kind == KindEmpty {
		delete(g.cells, key)
		return
	}
	g.cells[key] = v
	if row > g.maxRow {
		g.maxRow = row
	}
	if col > g.maxCol {
		g.maxCol = col
	}
}

// Each visits every populated cell in row-major order.
func (g *Grid) Each(fn func(c Coord, v Value)) {
	coords := make([]Coord, 0, len(g.cells))
	for c := range g.cells {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Row != coords[j].Row {
			return coords[i].Row < coords[j].Row
		}
		return coords[i].Col < coords[j].Col
	})
	for _, c := range coords {
		fn(c, g.cells[c])
	}
}
