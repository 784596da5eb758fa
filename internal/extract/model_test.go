package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tcg/scenario-sheets/internal/sheet"
)

func TestMeasurements_JSONKeepsSheetOrder(t *testing.T) {
	m := Measurements{
		{Name: "Temp", Value: sheet.Number(38.9)},
		{Name: "BP", Value: sheet.Text("70/40")},
		{Name: "Alert", Value: sheet.Bool(true)},
		{Name: "Notes", Value: sheet.Value{}},
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"Temp":38.9,"BP":"70/40","Alert":true,"Notes":null}`
	if string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}
}

func TestMeasurements_EmptyIsObject(t *testing.T) {
	b, err := json.Marshal(Measurements(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "{}" {
		t.Errorf("expected {}, got %s", b)
	}
}

func TestPatientInfo_JSONLayout(t *testing.T) {
	pi := PatientInfo{
		VitalsT1: Measurements{{Name: "HR", Value: sheet.Number(180)}},
		VitalsT2: Measurements{{Name: "HR", Value: sheet.Number(160)}},
		Imaging: []ImagingEntry{
			{RowID: "Patient Info - Imaging CXR", Name: "Chest X-Ray", Description: "Clear"},
		},
	}
	b, err := json.Marshal(pi)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"vitals_t1":{"HR":180},"vitals_t2":{"HR":160},"labs_t1":{},"labs_t2":{},` +
		`"Patient Info - Imaging CXR":{"imaging_name":"Chest X-Ray","imaging_description":"Clear"}}`
	if string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}
}

func TestPatientInfo_YAMLKeepsOrder(t *testing.T) {
	pi := PatientInfo{
		VitalsT1: Measurements{{Name: "RR", Value: sheet.Number(40)}, {Name: "HR", Value: sheet.Number(180)}},
		VitalsT2: Measurements{{Name: "RR", Value: sheet.Number(36)}, {Name: "HR", Value: sheet.Number(160)}},
	}
	b, err := yaml.Marshal(pi)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(b)
	order := []string{"vitals_t1:", "RR: 40", "HR: 180", "vitals_t2:", "labs_t1:", "labs_t2:"}
	last := -1
	for _, s := range order {
		i := strings.Index(out, s)
		if i <= last {
			t.Fatalf("expected %q after position %d in:\n%s", s, last, out)
		}
		last = i
	}
}

func TestDocument_JSONFieldNames(t *testing.T) {
	doc := mustExtract(t, fixtureGrid(t), Options{})
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"scenario_metadata", "dispositions", "patient_info", "key_information", "key_interventions", "scenario_questions"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("expected top-level key %q", key)
		}
	}
	if string(raw["key_interventions"]) != "[]" {
		t.Errorf("expected empty interventions to encode as [], got %s", raw["key_interventions"])
	}
	if !strings.Contains(string(raw["scenario_questions"]), `"patient_info_ref":"A27"`) {
		t.Errorf("expected resolved reference address in questions, got %s", raw["scenario_questions"])
	}
}
