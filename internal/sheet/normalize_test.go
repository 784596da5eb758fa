package sheet

import "testing"

func TestNormalize(t *testing.T) {
	g := New("s")
	g.Set(1, 1, Text("Patient’s mother"))
	g.Set(2, 3, Text("no quotes"))
	g.Set(3, 2, Number(4))
	g.Set(4, 4, Text("’’"))

	touched := Normalize(g)
	if len(touched) != 2 {
		t.Fatalf("expected 2 touched cells, got %d", len(touched))
	}
	if touched[0] != (Coord{Row: 1, Col: 1}) || touched[1] != (Coord{Row: 4, Col: 4}) {
		t.Errorf("unexpected touched cells: %v", touched)
	}
	if got := g.Cell(1, 1).Text; got != "Patient's mother" {
		t.Errorf("expected ASCII apostrophe, got %q", got)
	}
	if got := g.Cell(4, 4).Text; got != "''" {
		t.Errorf("expected every occurrence replaced, got %q", got)
	}
	if g.Cell(3, 2).Number != 4 {
		t.Error("numeric cell should be untouched")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	g := New("s")
	g.Set(1, 1, Text("it’s"))
	Normalize(g)
	if touched := Normalize(g); len(touched) != 0 {
		t.Errorf("expected second pass to change nothing, got %v", touched)
	}
}
