package sheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RefMarker introduces a cell reference in cell text, as in "=B12".
const RefMarker = "="

// ErrInvalidRef is returned for text that is not a single-cell address.
var ErrInvalidRef = errors.New("invalid cell reference")

// Ref is a resolved cell address.
type Ref = Coord

// IsRef reports whether text carries the reference marker.
func IsRef(text string) bool {
	return strings.HasPrefix(text, RefMarker)
}

// ParseRef decodes an address such as "=B12", "B12" or "=$AA$1". The leading
// letters are the column and the trailing digits the row.
func ParseRef(text string) (Ref, error) {
	addr := strings.TrimPrefix(strings.TrimSpace(text), RefMarker)
	addr = strings.ReplaceAll(addr, "$", "")

	split := 0
	for split < len(addr) && isLetter(addr[split]) {
		split++
	}
	letters, digits := addr[:split], addr[split:]
	if letters == "" || digits == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, text)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, text)
		}
	}

	col, err := ColumnIndex(letters)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, text)
	}
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, text)
	}
	return Ref{Row: row, Col: col}, nil
}

// ColumnIndex converts column letters to a 1-based index: A=1, Z=26, AA=27.
func ColumnIndex(letters string) (int, error) {
	if letters == "" {
		return 0, fmt.Errorf("%w: empty column", ErrInvalidRef)
	}
	col := 0
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		if !isLetter(c) {
			return 0, fmt.Errorf("%w: column %q", ErrInvalidRef, letters)
		}
		if c >= 'a' {
			c -= 'a' - 'A'
		}
		col = col*26 + int(c-'A') + 1
		// XFD is the last column of a modern workbook.
		if col > 16384 {
			return 0, fmt.Errorf("%w: column %q out of range", ErrInvalidRef, letters)
		}
	}
	return col, nil
}

// ColumnName is the inverse of ColumnIndex.
func ColumnName(col int) string {
	if col < 1 {
		return ""
	}
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// Resolve dereferences a reference text against the grid and returns the
// target value together with the decoded address.
func (g *Grid) Resolve(text string) (Value, Ref, error) {
	ref, err := ParseRef(text)
	if err != nil {
		return Value{}, Ref{}, err
	}
	return g.Cell(ref.Row, ref.Col), ref, nil
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
