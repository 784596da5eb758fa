package extract

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tcg/scenario-sheets/internal/sheet"
)

// cells reads one sheet row.
type cells struct {
	g   *sheet.Grid
	row int
}

func (c cells) value(col int) sheet.Value { return c.g.Cell(c.row, col) }

func (c cells) text(col int) string { return c.g.Cell(c.row, col).String() }

// optional is text(col), or nil for an empty cell.
func (c cells) optional(col int) *string {
	v := c.g.Cell(c.row, col)
	if v.IsEmpty() {
		return nil
	}
	s := v.String()
	return &s
}

// yes coerces a yes/no cell. Anything other than "yes" is false.
func (c cells) yes(col int) bool {
	return strings.EqualFold(strings.TrimSpace(c.text(col)), "yes")
}

func decodeMetadata(g *sheet.Grid) (Metadata, error) {
	reg, err := metadataSection.Locate(g)
	if err != nil {
		return Metadata{}, err
	}

	name := cells{g, reg.Start}
	desc := cells{g, reg.Start + 1}
	bed := cells{g, reg.Start + 2}

	md := Metadata{
		ScenarioName:  name.text(2),
		Description:   desc.optional(2),
		BedStatus:     BedStatus(bed.text(2)),
		BedStatusText: bed.optional(3),
	}

	for _, s := range BedStatuses {
		if md.BedStatus == s {
			return md, nil
		}
	}
	return Metadata{}, structural(ErrInvalidBedStatus, metadataSection.Name, bed.row,
		"%q must be one of %s", string(md.BedStatus), joinQuoted(BedStatuses))
}

// Disposition rows: name, correct, EMTALA, learner text, then responder
// name/text pairs until the first incomplete pair.
const (
	dispositionNameCol     = 2
	dispositionResponseCol = dispositionNameCol + 4
)

func decodeDispositions(g *sheet.Grid, rep Reporter) ([]Disposition, error) {
	reg, err := dispositionsSection.Locate(g)
	if err != nil {
		return nil, err
	}

	out := make([]Disposition, 0, reg.Rows)
	for _, row := range reg.RowNumbers() {
		c := cells{g, row}
		d := Disposition{
			Name:              c.text(dispositionNameCol),
			IsCorrect:         c.yes(dispositionNameCol + 1),
			IsEMTALAViolation: c.yes(dispositionNameCol + 2),
			LearnerText:       c.text(dispositionNameCol + 3),
			Responses:         []Response{},
		}
		for col := dispositionResponseCol; col <= g.MaxCol(); col += 2 {
			name, text := c.value(col), c.value(col+1)
			if name.IsEmpty() || text.IsEmpty() {
				break
			}
			d.Responses = append(d.Responses, Response{
				ResponderName: name.String(),
				ResponderText: text.String(),
			})
		}
		out = append(out, d)
	}

	if len(out) < 4 || len(out) > 5 {
		rep.Warn(Warning{
			Section: dispositionsSection.Name,
			Row:     reg.Anchor,
			Message: fmt.Sprintf("expected 4-5 dispositions, found %d", len(out)),
		})
	}
	for i, d := range out {
		row := reg.Start + i
		if !contains(DispositionNames, d.Name) {
			rep.Warn(Warning{
				Section: dispositionsSection.Name,
				Row:     row,
				Message: fmt.Sprintf("unexpected disposition name %q, expected one of %s", d.Name, joinQuoted(DispositionNames)),
			})
		}
		if len(d.Responses) == 0 {
			rep.Warn(Warning{
				Section: dispositionsSection.Name,
				Row:     row,
				Message: fmt.Sprintf("disposition %q has no responses", d.Name),
			})
		}
	}
	return out, nil
}

// Measurement rows: name in column C, value in column D.
const (
	measurementNameCol  = 3
	measurementValueCol = 4
)

// decodeMeasurements reads a vitals or labs block. With unique set, a
// repeated name is fatal; otherwise the later value wins and a warning is
// reported.
func decodeMeasurements(g *sheet.Grid, sec Section, unique bool, rep Reporter) (Measurements, error) {
	reg, err := sec.Locate(g)
	if err != nil {
		return nil, err
	}

	out := make(Measurements, 0, reg.Rows)
	index := make(map[string]int, reg.Rows)
	for _, row := range reg.RowNumbers() {
		c := cells{g, row}
		name := c.text(measurementNameCol)
		value := c.value(measurementValueCol)
		if i, dup := index[name]; dup {
			if unique {
				return nil, structural(ErrDuplicateName, sec.Name, row, "%q appears more than once", name)
			}
			rep.Warn(Warning{
				Section: sec.Name,
				Row:     row,
				Message: fmt.Sprintf("%q appears more than once, keeping the last value", name),
			})
			out[i].Value = value
			continue
		}
		index[name] = len(out)
		out = append(out, Measurement{Name: name, Value: value})
	}
	return out, nil
}

func decodeVitals(g *sheet.Grid, rep Reporter) (Measurements, Measurements, error) {
	t1, err := decodeMeasurements(g, vitalsT1Section, true, rep)
	if err != nil {
		return nil, nil, err
	}
	t2, err := decodeMeasurements(g, vitalsT2Section, true, rep)
	if err != nil {
		return nil, nil, err
	}

	onlyT1, onlyT2 := diffKeys(t1.Keys(), t2.Keys())
	if len(onlyT1) > 0 || len(onlyT2) > 0 {
		return nil, nil, structural(ErrVitalsMismatch, vitalsT2Section.Name, 0,
			"only in T1: %s; only in T2: %s", joinQuoted(onlyT1), joinQuoted(onlyT2))
	}
	return t1, t2, nil
}

func decodeLabs(g *sheet.Grid, rep Reporter) (Measurements, Measurements, error) {
	t1, err := decodeMeasurements(g, labsT1Section, false, rep)
	if err != nil {
		return nil, nil, err
	}
	t2, err := decodeMeasurements(g, labsT2Section, false, rep)
	if err != nil {
		return nil, nil, err
	}
	return t1, t2, nil
}

func decodeImaging(g *sheet.Grid, rep Reporter) ([]ImagingEntry, error) {
	reg, err := imagingSection.Locate(g)
	if err != nil {
		return nil, err
	}

	out := make([]ImagingEntry, 0, reg.Rows)
	index := make(map[string]int, reg.Rows)
	for _, row := range reg.RowNumbers() {
		c := cells{g, row}
		e := ImagingEntry{
			RowID:       c.text(1),
			Name:        c.text(2),
			Description: c.text(3),
		}
		if i, dup := index[e.RowID]; dup {
			rep.Warn(Warning{
				Section: imagingSection.Name,
				Row:     row,
				Message: fmt.Sprintf("imaging row id %q appears more than once, keeping the last entry", e.RowID),
			})
			out[i] = e
			continue
		}
		if isMeasurementKey(e.RowID) {
			return nil, structural(ErrDuplicateName, imagingSection.Name, row,
				"imaging row id %q collides with a patient info section", e.RowID)
		}
		index[e.RowID] = len(out)
		out = append(out, e)
	}
	return out, nil
}

// Key information rows: name in column B, score in column C.
const (
	keyNameCol  = 2
	keyScoreCol = 3
)

func decodeKeyItems(g *sheet.Grid, sec Section, rep Reporter) ([]KeyItem, error) {
	reg, err := sec.Locate(g)
	if err != nil {
		return nil, err
	}

	out := make([]KeyItem, 0, reg.Rows)
	rows := make(map[string]int, reg.Rows)
	for _, row := range reg.RowNumbers() {
		c := cells{g, row}
		name := c.text(keyNameCol)
		if first, dup := rows[name]; dup {
			return nil, structural(ErrDuplicateName, sec.Name, row,
				"%q already listed at row %d", name, first)
		}
		rows[name] = row

		score, err := parseScore(c.value(keyScoreCol))
		if err != nil {
			return nil, structural(ErrInvalidScore, sec.Name, row, "%q: %v", name, err)
		}
		if c.value(keyScoreCol).IsEmpty() {
			rep.Warn(Warning{
				Section: sec.Name,
				Row:     row,
				Message: fmt.Sprintf("%q has no score, using 0", name),
			})
		}
		out = append(out, KeyItem{Name: name, Score: score})
	}

	// Names are joined with commas in question rows, so a comma would make
	// the reference ambiguous.
	for _, item := range out {
		if strings.Contains(item.Name, ",") {
			return nil, structural(ErrCommaInName, sec.Name, rows[item.Name],
				"%q contains a comma, which is not allowed", item.Name)
		}
	}
	return out, nil
}

func parseScore(v sheet.Value) (float64, error) {
	switch v.Kind {
	case sheet.KindEmpty:
		return 0, nil
	case sheet.KindNumber:
		return v.Number, nil
	case sheet.KindText:
		s := strings.TrimSpace(v.Text)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("score %q is not a number", v.Text)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("score %s is not a number", v.String())
	}
}

func isMeasurementKey(key string) bool {
	switch key {
	case KeyVitalsT1, KeyVitalsT2, KeyLabsT1, KeyLabsT2:
		return true
	}
	return false
}

// diffKeys returns the names only present in a and only present in b, sorted.
func diffKeys(a, b []string) ([]string, []string) {
	inA := make(map[string]bool, len(a))
	for _, k := range a {
		inA[k] = true
	}
	inB := make(map[string]bool, len(b))
	for _, k := range b {
		inB[k] = true
	}
	var onlyA, onlyB []string
	for k := range inA {
		if !inB[k] {
			onlyA = append(onlyA, k)
		}
	}
	for k := range inB {
		if !inA[k] {
			onlyB = append(onlyB, k)
		}
	}
	sort.Strings(onlyA)
	sort.Strings(onlyB)
	return onlyA, onlyB
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func joinQuoted[T ~string](items []T) string {
	if len(items) == 0 {
		return "none"
	}
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = strconv.Quote(string(it))
	}
	return strings.Join(quoted, ", ")
}
