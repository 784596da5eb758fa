package extract

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/tcg/scenario-sheets/internal/sheet"
)

// BedStatus is the receiving unit's capacity signal.
type BedStatus string

const (
	BedRed    BedStatus = "red"
	BedYellow BedStatus = "yellow"
	BedGreen  BedStatus = "green"
)

// BedStatuses lists the accepted bed status values.
var BedStatuses = []BedStatus{BedRed, BedYellow, BedGreen}

// Category groups scenario questions.
type Category string

const (
	CategoryTransferCenter           Category = "Transfer Center"
	CategoryPresentIllness           Category = "Present Illness/Medical History"
	CategoryExamsLabsImaging         Category = "Exams, Labs, and Imaging"
	CategoryPriorInterventions       Category = "Prior Interventions"
	CategoryRecommendedInterventions Category = "Recommended Interventions"
)

// Categories lists the accepted question categories.
var Categories = []Category{
	CategoryTransferCenter,
	CategoryPresentIllness,
	CategoryExamsLabsImaging,
	CategoryPriorInterventions,
	CategoryRecommendedInterventions,
}

// DispositionNames lists the disposition names a scenario normally uses.
// Other names are accepted with a warning.
var DispositionNames = []string{"Admit", "Send Home", "PICU", "Consult"}

// Patient info keys for the four measurement blocks.
const (
	KeyVitalsT1 = "vitals_t1"
	KeyVitalsT2 = "vitals_t2"
	KeyLabsT1   = "labs_t1"
	KeyLabsT2   = "labs_t2"
)

// Metadata heads the document. Optional text left empty in the sheet is nil
// and serializes as null.
type Metadata struct {
	ScenarioName  string    `json:"scenario_name" yaml:"scenario_name"`
	Description   *string   `json:"scenario_description" yaml:"scenario_description"`
	BedStatus     BedStatus `json:"bed_status" yaml:"bed_status"`
	BedStatusText *string   `json:"bed_status_text" yaml:"bed_status_text"`
}

type Response struct {
	ResponderName string `json:"responder_name" yaml:"responder_name"`
	ResponderText string `json:"responder_text" yaml:"responder_text"`
}

type Disposition struct {
	Name              string     `json:"disposition_name" yaml:"disposition_name"`
	IsCorrect         bool       `json:"is_correct" yaml:"is_correct"`
	IsEMTALAViolation bool       `json:"is_emtala_violation" yaml:"is_emtala_violation"`
	LearnerText       string     `json:"learner_text" yaml:"learner_text"`
	Responses         []Response `json:"responses" yaml:"responses"`
}

// Measurement is one named value of a vitals or labs block.
type Measurement struct {
	Name  string
	Value sheet.Value
}

// Measurements keeps sheet order and serializes as an ordered mapping.
type Measurements []Measurement

// Keys returns the measurement names in sheet order.
func (m Measurements) Keys() []string {
	keys := make([]string, len(m))
	for i, e := range m {
		keys[i] = e.Name
	}
	return keys
}

// Get looks up a measurement by name.
func (m Measurements) Get(name string) (sheet.Value, bool) {
	for _, e := range m {
		if e.Name == name {
			return e.Value, true
		}
	}
	return sheet.Value{}, false
}

func (m Measurements) ordered() ([]string, []interface{}) {
	values := make([]interface{}, len(m))
	for i, e := range m {
		values[i] = e.Value
	}
	return m.Keys(), values
}

func (m Measurements) MarshalJSON() ([]byte, error) {
	return marshalOrdered(m.ordered())
}

func (m Measurements) MarshalYAML() (interface{}, error) {
	return orderedNode(m.ordered())
}

// ImagingEntry is one imaging study. RowID is the column 1 label of its row,
// which question references resolve to.
type ImagingEntry struct {
	RowID       string `json:"-" yaml:"-"`
	Name        string `json:"imaging_name" yaml:"imaging_name"`
	Description string `json:"imaging_description" yaml:"imaging_description"`
}

// PatientInfo merges the vitals, labs and imaging sections. It serializes as
// one mapping: the four measurement blocks followed by one entry per imaging
// row id.
type PatientInfo struct {
	VitalsT1 Measurements
	VitalsT2 Measurements
	LabsT1   Measurements
	LabsT2   Measurements
	Imaging  []ImagingEntry
}

// Keys returns the mapping keys in serialization order.
func (p PatientInfo) Keys() []string {
	keys, _ := p.ordered()
	return keys
}

// ImagingByRowID looks up an imaging study by its row id.
func (p PatientInfo) ImagingByRowID(id string) (ImagingEntry, bool) {
	for _, e := range p.Imaging {
		if e.RowID == id {
			return e, true
		}
	}
	return ImagingEntry{}, false
}

func (p PatientInfo) ordered() ([]string, []interface{}) {
	keys := []string{KeyVitalsT1, KeyVitalsT2, KeyLabsT1, KeyLabsT2}
	values := []interface{}{p.VitalsT1, p.VitalsT2, p.LabsT1, p.LabsT2}
	for _, e := range p.Imaging {
		keys = append(keys, e.RowID)
		values = append(values, e)
	}
	return keys, values
}

func (p PatientInfo) MarshalJSON() ([]byte, error) {
	return marshalOrdered(p.ordered())
}

func (p PatientInfo) MarshalYAML() (interface{}, error) {
	return orderedNode(p.ordered())
}

// KeyItem is a key information or key intervention entry.
type KeyItem struct {
	Name  string  `json:"key_name" yaml:"key_name"`
	Score float64 `json:"key_score" yaml:"key_score"`
}

type Question struct {
	Text                      string      `json:"question_text" yaml:"question_text"`
	Category                  Category    `json:"category" yaml:"category"`
	KeyWords                  []string    `json:"key_words" yaml:"key_words"`
	KeyInfoRevealed           []string    `json:"key_info_revealed" yaml:"key_info_revealed"`
	KeyInterventionsRequested []string    `json:"key_interventions_requested" yaml:"key_interventions_requested"`
	PatientInfoRevealed       sheet.Value `json:"patient_info_revealed" yaml:"patient_info_revealed"`
	// PatientInfoRef is the resolved address when the cell held a reference.
	PatientInfoRef string `json:"patient_info_ref,omitempty" yaml:"patient_info_ref,omitempty"`
	// Responder fields are nil when the question has no responder.
	ResponderName *string `json:"responder_name" yaml:"responder_name"`
	ResponderText *string `json:"responder_text" yaml:"responder_text"`
}

// Document is the validated result of one extraction run.
type Document struct {
	Metadata         Metadata      `json:"scenario_metadata" yaml:"scenario_metadata"`
	Dispositions     []Disposition `json:"dispositions" yaml:"dispositions"`
	PatientInfo      PatientInfo   `json:"patient_info" yaml:"patient_info"`
	KeyInformation   []KeyItem     `json:"key_information" yaml:"key_information"`
	KeyInterventions []KeyItem     `json:"key_interventions" yaml:"key_interventions"`
	Questions        []Question    `json:"scenario_questions" yaml:"scenario_questions"`
}

func marshalOrdered(keys []string, values []interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func orderedNode(keys []string, values []interface{}) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i, k := range keys {
		v := &yaml.Node{}
		if err := v.Encode(values[i]); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, v)
	}
	return n, nil
}
