package scenario

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/tcg/scenario-sheets/internal/platform/source"
	"github.com/tcg/scenario-sheets/internal/sheet"
)

const testSheet = "Scenario 1"

// Rows of testSheet that tests reshape.
const (
	rowBedStatus     = 3
	rowQuestions     = 29
	rowFirstQuestion = 30
)

func scenarioRows() [][]interface{} {
	return [][]interface{}{
		{"Scenario Name", "Bronchiolitis"},
		{"Scenario Description", "A 4 month old’s breathing is getting worse"},
		{"Bed Status", "yellow", "One PICU bed"},
		{},
		{"Dispositions", "Admit", "Yes", "No", "Admit to floor", "Transfer Center", "Thanks"},
		{nil, "Send Home", "No", "Yes", "Discharge", "OSH Doctor", "Really?"},
		{nil, "PICU", "No", "No", "PICU", "PICU Fellow", "Sure"},
		{nil, "Consult", "No", "No", "Consult", "Transfer Center", "Ok"},
		{},
		{"Patient Info - Vitals T1", nil, "HR", 170},
		{nil, nil, "RR", 60},
		{nil, nil, "BP", "85/50"},
		{nil, nil, "Temp", 37.8},
		{nil, nil, "SpO2", 91},
		{nil, nil, "Weight", 6.2},
		{},
		{"Patient Info - Vitals T2", nil, "HR", 165},
		{nil, nil, "RR", 58},
		{nil, nil, "BP", "88/52"},
		{nil, nil, "Temp", 37.6},
		{nil, nil, "SpO2", 93},
		{nil, nil, "Weight", 6.2},
		{"Patient Info - Labs T1"},
		{"Patient Info - Labs T2"},
		{"Patient Info - Imaging", "CXR", "Hyperinflation"},
		{},
		{"Scenario Key Information", "Hypoxia", 4},
		{"Scenario Key Interventions"},
		{"Scenario Questions", "Question", "Category", "Key Words", "Key Info", "Patient Info", "Responder", "Text"},
		{nil, "What’s the sat?", "Exams, Labs, and Imaging", "sat, oxygen", "Hypoxia", "=D14", "OSH Doctor", "91%"},
	}
}

func testGrid(t *testing.T) *sheet.Grid {
	t.Helper()
	g, err := sheet.FromValues(testSheet, scenarioRows())
	if err != nil {
		t.Fatalf("build grid: %v", err)
	}
	if got := g.Cell(rowQuestions, 1).String(); got != "Scenario Questions" {
		t.Fatalf("fixture drifted: row %d holds %q", rowQuestions, got)
	}
	return g
}

func testSource(t *testing.T) *source.Memory {
	t.Helper()
	return source.NewMemory(testGrid(t))
}

// workbookBytes renders the fixture rows as an xlsx file.
func workbookBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(testSheet); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	for i, row := range scenarioRows() {
		if len(row) == 0 {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow(testSheet, axis, &r); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.Clone(buf.Bytes())
}

func newTestService(repo Repository) *Service {
	return NewService(repo, zerolog.Nop())
}
