// Package sheet models a single worksheet as a sparse, 1-indexed grid of typed
// cells and provides the scanning primitives used to pull sections out of it:
// anchor lookup, run sizing, spreadsheet-style cell references, the text
// normalization pre-pass and comma-list splitting.
package sheet

import (
	"encoding/json"
	"strconv"
)

// Kind identifies the type held by a Value.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "empty"
	}
}

// Value is a single typed cell. The zero value is an empty cell.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	Bool   bool
}

// Text returns a text cell.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Number returns a numeric cell.
func Number(n float64) Value { return Value{Kind: KindNumber, Number: n} }

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IsEmpty reports whether the cell is absent or holds an empty string.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty || (v.Kind == KindText && v.Text == "")
}

// String renders the cell the way it reads in the sheet. Numbers drop
// trailing zeros, booleans render as TRUE/FALSE, empty cells as "".
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// Interface returns the native Go value: nil, string, float64 or bool.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return v.Number
	case KindBool:
		return v.Bool
	default:
		return nil
	}
}

// MarshalJSON encodes the cell as a plain JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// MarshalYAML encodes the cell as a plain YAML scalar.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.Interface(), nil
}
