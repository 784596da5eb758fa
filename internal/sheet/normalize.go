package sheet

import "strings"

// quoteReplacer rewrites the typographic apostrophe that authoring tools
// insert into plain ASCII.
var quoteReplacer = strings.NewReplacer("\u2019", "'")

// Normalize rewrites every text cell in place and returns the coordinates it
// changed. Running it twice changes nothing the second time.
func Normalize(g *Grid) []Coord {
	var touched []Coord
	g.Each(func(c Coord, v Value) {
		if v.Kind != KindText {
			return
		}
		fixed := quoteReplacer.Replace(v.Text)
		if fixed != v.Text {
			g.Set(c.Row, c.Col, Text(fixed))
			touched = append(touched, c)
		}
	})
	return touched
}
