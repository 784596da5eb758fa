package sheet

import (
	"errors"
	"testing"
)

func TestColumnIndex(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"A", 1},
		{"b", 2},
		{"Z", 26},
		{"AA", 27},
		{"AZ", 52},
		{"BA", 53},
		{"ZZ", 702},
		{"AAA", 703},
		{"XFD", 16384},
	}
	for _, tt := range tests {
		got, err := ColumnIndex(tt.in)
		if err != nil {
			t.Errorf("ColumnIndex(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ColumnIndex(%q) = %d, want %d", tt.in, got, tt.want)
		}
		if name := ColumnName(tt.want); name != stringsToUpper(tt.in) {
			t.Errorf("ColumnName(%d) = %q, want %q", tt.want, name, stringsToUpper(tt.in))
		}
	}
}

func stringsToUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func TestColumnIndex_Invalid(t *testing.T) {
	for _, in := range []string{"", "A1", "XFE", "Ä"} {
		if _, err := ColumnIndex(in); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("ColumnIndex(%q) expected ErrInvalidRef, got %v", in, err)
		}
	}
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
	}{
		{"=B12", Ref{Row: 12, Col: 2}},
		{"B12", Ref{Row: 12, Col: 2}},
		{"=AA1", Ref{Row: 1, Col: 27}},
		{"=$C$7", Ref{Row: 7, Col: 3}},
		{"=a23", Ref{Row: 23, Col: 1}},
		{" =D4 ", Ref{Row: 4, Col: 4}},
	}
	for _, tt := range tests {
		got, err := ParseRef(tt.in)
		if err != nil {
			t.Errorf("ParseRef(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRef(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseRef_Invalid(t *testing.T) {
	for _, in := range []string{"=", "=12", "=B", "=B1C", "=B0", "='Other'!B2", "=SUM(A1:A3)"} {
		if _, err := ParseRef(in); !errors.Is(err, ErrInvalidRef) {
			t.Errorf("ParseRef(%q) expected ErrInvalidRef, got %v", in, err)
		}
	}
}

func TestResolve(t *testing.T) {
	g := New("s")
	g.Set(12, 2, Text("Tachycardic"))
	g.Set(1, 27, Number(3))

	v, ref, err := g.Resolve("=B12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.String() != "Tachycardic" {
		t.Errorf("expected 'Tachycardic', got %q", v.String())
	}
	if ref.String() != "B12" {
		t.Errorf("expected ref B12, got %s", ref)
	}

	v, ref, err = g.Resolve("=AA1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Col != 27 || v.Number != 3 {
		t.Errorf("expected column 27 value 3, got col %d value %+v", ref.Col, v)
	}

	v, _, err = g.Resolve("=Z99")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.IsEmpty() {
		t.Errorf("expected empty value outside the grid, got %+v", v)
	}
}

func TestIsRef(t *testing.T) {
	if !IsRef("=A1") {
		t.Error("expected =A1 to be a reference")
	}
	if IsRef("Tachycardic") || IsRef(" =A1") {
		t.Error("expected plain text not to be a reference")
	}
}
