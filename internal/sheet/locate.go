package sheet

import "strings"

// MatchMode selects how FindAnchor compares a label with column 1.
type MatchMode int

const (
	// MatchExact requires a text cell equal to the label.
	MatchExact MatchMode = iota
	// MatchPartial accepts any cell whose rendered text contains the label.
	MatchPartial
)

// FindAnchor returns the first row whose column 1 cell matches label.
func (g *Grid) FindAnchor(label string, mode MatchMode) (int, bool) {
	for row := 1; row <= g.maxRow; row++ {
		v := g.Cell(row, 1)
		switch mode {
		case MatchPartial:
			if v.Kind != KindEmpty && strings.Contains(v.String(), label) {
				return row, true
			}
		default:
			if v.Kind == KindText && v.Text == label {
				return row, true
			}
		}
	}
	return 0, false
}

// CountRun counts consecutive non-empty cells in col starting at
// startRow. A blank cell inside real data ends the run.
func (g *Grid) CountRun(startRow, col int) int {
	if startRow < 1 {
		return 0
	}
	n := 0
	for row := startRow; row <= g.maxRow; row++ {
		if g.Cell(row, col).IsEmpty() {
			break
		}
		n++
	}
	return n
}
