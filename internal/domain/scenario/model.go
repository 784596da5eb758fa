package scenario

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tcg/scenario-sheets/internal/extract"
)

// Record is a stored extraction run. Document holds the encoded scenario
// exactly as it was exported, key order included; stores keep it as text.
type Record struct {
	ID           uuid.UUID         `json:"id"`
	SheetName    string            `json:"sheet_name"`
	ScenarioName string            `json:"scenario_name"`
	BedStatus    string            `json:"bed_status"`
	Document     json.RawMessage   `json:"document"`
	Warnings     []extract.Warning `json:"warnings"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Result is the outcome of parsing one sheet.
type Result struct {
	Sheet    string            `json:"sheet"`
	Document *extract.Document `json:"document"`
	Warnings []extract.Warning `json:"warnings"`
	// Normalized counts the cells whose typographic apostrophes were replaced.
	Normalized int `json:"normalized"`
}

func newRecord(res *Result) (*Record, error) {
	doc, err := json.Marshal(res.Document)
	if err != nil {
		return nil, err
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []extract.Warning{}
	}
	return &Record{
		SheetName:    res.Sheet,
		ScenarioName: res.Document.Metadata.ScenarioName,
		BedStatus:    string(res.Document.Metadata.BedStatus),
		Document:     doc,
		Warnings:     warnings,
	}, nil
}
