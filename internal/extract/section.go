package extract

import (
	"github.com/tcg/scenario-sheets/internal/sheet"
)

// Section describes where a block of the sheet lives and how far it extends.
// Every decoder goes through Locate, so the scanning rules exist once.
type Section struct {
	Name   string
	Anchor string
	Match  sheet.MatchMode
	// Offset is the distance from the anchor row to the first data row.
	Offset int
	// Probe is the column whose run of non-empty cells sizes the section.
	// Zero means a fixed block of Size rows that is not probed.
	Probe int
	// Size, when non-zero, is the exact row count the section must have.
	Size int
}

// Region is a located section.
type Region struct {
	Section string
	Anchor  int
	Start   int
	Rows    int
}

// RowNumbers returns the sheet rows covered by the region.
func (r Region) RowNumbers() []int {
	rows := make([]int, r.Rows)
	for i := range rows {
		rows[i] = r.Start + i
	}
	return rows
}

// Locate finds the section anchor and sizes the data region below it.
func (s Section) Locate(g *sheet.Grid) (Region, error) {
	anchor, ok := g.FindAnchor(s.Anchor, s.Match)
	if !ok {
		return Region{}, structural(ErrMissingAnchor, s.Name, 0,
			"could not find %q in the first column", s.Anchor)
	}

	reg := Region{Section: s.Name, Anchor: anchor, Start: anchor + s.Offset}
	if s.Probe == 0 {
		reg.Rows = s.Size
		return reg, nil
	}

	reg.Rows = g.CountRun(reg.Start, s.Probe)
	if s.Size > 0 && reg.Rows != s.Size {
		return Region{}, structural(ErrSectionSize, s.Name, anchor,
			"expected %d rows, found %d", s.Size, reg.Rows)
	}
	return reg, nil
}

// Sheet layout. Labels are matched against column 1.
var (
	metadataSection = Section{
		Name:   "scenario_metadata",
		Anchor: "Scenario Name",
		Size:   3,
	}
	dispositionsSection = Section{
		Name:   "dispositions",
		Anchor: "Dispositions",
		Probe:  2,
	}
	vitalsT1Section = Section{
		Name:   KeyVitalsT1,
		Anchor: "Patient Info - Vitals T1",
		Probe:  3,
		Size:   6,
	}
	vitalsT2Section = Section{
		Name:   KeyVitalsT2,
		Anchor: "Patient Info - Vitals T2",
		Probe:  3,
		Size:   6,
	}
	labsT1Section = Section{
		Name:   KeyLabsT1,
		Anchor: "Patient Info - Labs T1",
		Probe:  3,
	}
	labsT2Section = Section{
		Name:   KeyLabsT2,
		Anchor: "Patient Info - Labs T2",
		Probe:  3,
	}
	// The imaging label carries a suffix that varies between scenarios.
	imagingSection = Section{
		Name:   "imaging",
		Anchor: "Patient Info - Imaging",
		Match:  sheet.MatchPartial,
		Probe:  2,
	}
	keyInformationSection = Section{
		Name:   "key_information",
		Anchor: "Scenario Key Information",
		Probe:  2,
	}
	keyInterventionsSection = Section{
		Name:   "key_interventions",
		Anchor: "Scenario Key Interventions",
		Probe:  2,
	}
	// The anchor row of the questions block is a column header.
	questionsSection = Section{
		Name:   "scenario_questions",
		Anchor: "Scenario Questions",
		Offset: 1,
		Probe:  2,
	}
)
