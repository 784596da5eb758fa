// Package extract turns a scenario worksheet into a validated Document.
//
// The sheet has no schema. Sections are found by their label in column 1 and
// sized by scanning a probe column until the first blank cell. A sheet whose
// layout cannot be decoded fails with a *StructuralError and no document;
// content that decodes but looks unusual is passed to the Reporter as a
// Warning and extraction carries on.
package extract

import (
	"fmt"

	"github.com/tcg/scenario-sheets/internal/sheet"
)

// Options tune a single extraction run.
type Options struct {
	// Reporter receives warnings. Nil discards them.
	Reporter Reporter
	// StrictKeyWords rejects questions whose key words cell is empty.
	StrictKeyWords bool
}

// Extract decodes every section of g. Key information and key interventions
// are decoded before questions, which reference them.
func Extract(g *sheet.Grid, opts Options) (*Document, error) {
	if g == nil {
		return nil, fmt.Errorf("extract: nil grid")
	}
	rep := opts.Reporter
	if rep == nil {
		rep = discard{}
	}

	md, err := decodeMetadata(g)
	if err != nil {
		return nil, err
	}
	dispositions, err := decodeDispositions(g, rep)
	if err != nil {
		return nil, err
	}
	vitalsT1, vitalsT2, err := decodeVitals(g, rep)
	if err != nil {
		return nil, err
	}
	labsT1, labsT2, err := decodeLabs(g, rep)
	if err != nil {
		return nil, err
	}
	imaging, err := decodeImaging(g, rep)
	if err != nil {
		return nil, err
	}
	info, err := decodeKeyItems(g, keyInformationSection, rep)
	if err != nil {
		return nil, err
	}
	interventions, err := decodeKeyItems(g, keyInterventionsSection, rep)
	if err != nil {
		return nil, err
	}
	warnSharedKeyNames(info, interventions, rep)

	questions, err := decodeQuestions(g, info, interventions, opts, rep)
	if err != nil {
		return nil, err
	}

	return &Document{
		Metadata:     md,
		Dispositions: dispositions,
		PatientInfo: PatientInfo{
			VitalsT1: vitalsT1,
			VitalsT2: vitalsT2,
			LabsT1:   labsT1,
			LabsT2:   labsT2,
			Imaging:  imaging,
		},
		KeyInformation:   info,
		KeyInterventions: interventions,
		Questions:        questions,
	}, nil
}

func warnSharedKeyNames(info, interventions []KeyItem, rep Reporter) {
	names := make(map[string]bool, len(info))
	for _, k := range info {
		names[k.Name] = true
	}
	for _, k := range interventions {
		if names[k.Name] {
			rep.Warn(Warning{
				Section: keyInterventionsSection.Name,
				Message: fmt.Sprintf("%q is listed as both key information and a key intervention; questions will treat it as an intervention", k.Name),
			})
		}
	}
}
