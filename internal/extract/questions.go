package extract

import (
	"errors"
	"fmt"

	"github.com/tcg/scenario-sheets/internal/sheet"
)

// Question rows, columns B through H.
const (
	questionTextCol = 2 + iota
	questionCategoryCol
	questionKeyWordsCol
	questionKeyInfoCol
	questionPatientInfoCol
	questionResponderNameCol
	questionResponderTextCol
)

type keyKind int

const (
	keyInformation keyKind = iota + 1
	keyIntervention
)

// keyIndex maps a key name to the list it belongs to. Interventions are
// indexed last so they win when a name appears in both lists.
func keyIndex(info, interventions []KeyItem) map[string]keyKind {
	idx := make(map[string]keyKind, len(info)+len(interventions))
	for _, k := range info {
		idx[k.Name] = keyInformation
	}
	for _, k := range interventions {
		idx[k.Name] = keyIntervention
	}
	return idx
}

func decodeQuestions(g *sheet.Grid, info, interventions []KeyItem, opts Options, rep Reporter) ([]Question, error) {
	reg, err := questionsSection.Locate(g)
	if err != nil {
		return nil, err
	}
	sec := questionsSection.Name
	keys := keyIndex(info, interventions)

	out := make([]Question, 0, reg.Rows)
	for _, row := range reg.RowNumbers() {
		c := cells{g, row}
		q := Question{
			Text:                      c.text(questionTextCol),
			Category:                  Category(c.text(questionCategoryCol)),
			KeyInfoRevealed:           []string{},
			KeyInterventionsRequested: []string{},
			ResponderName:             c.optional(questionResponderNameCol),
			ResponderText:             c.optional(questionResponderTextCol),
		}

		if !validCategory(q.Category) {
			return nil, structural(ErrInvalidCategory, sec, row,
				"category %q in question %q must be one of %s", string(q.Category), q.Text, joinQuoted(Categories))
		}

		q.KeyWords = sheet.SplitList(c.text(questionKeyWordsCol))
		if c.value(questionKeyWordsCol).IsEmpty() {
			if opts.StrictKeyWords {
				return nil, structural(ErrEmptyKeyWords, sec, row, "question %q", q.Text)
			}
			rep.Warn(Warning{
				Section: sec,
				Row:     row,
				Message: fmt.Sprintf("question %q has no key words", q.Text),
			})
		}

		for _, token := range sheet.SplitList(c.text(questionKeyInfoCol)) {
			switch keys[token] {
			case keyIntervention:
				q.KeyInterventionsRequested = append(q.KeyInterventionsRequested, token)
			case keyInformation:
				q.KeyInfoRevealed = append(q.KeyInfoRevealed, token)
			default:
				return nil, structural(ErrUnknownKeyInfo, sec, row,
					"%q in question %q does not exist in key information or key interventions", token, q.Text)
			}
		}

		if err := resolvePatientInfo(g, c, &q, rep); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// resolvePatientInfo fills PatientInfoRevealed. Text starting with the
// reference marker is replaced by the referenced cell; anything else is kept
// as written.
func resolvePatientInfo(g *sheet.Grid, c cells, q *Question, rep Reporter) error {
	v := c.value(questionPatientInfoCol)
	if v.Kind != sheet.KindText || !sheet.IsRef(v.Text) {
		q.PatientInfoRevealed = v
		return nil
	}

	resolved, ref, err := g.Resolve(v.Text)
	if err != nil {
		if errors.Is(err, sheet.ErrInvalidRef) {
			return structural(ErrInvalidReference, questionsSection.Name, c.row,
				"patient info %q in question %q is not a cell address", v.Text, q.Text)
		}
		return err
	}
	if resolved.IsEmpty() {
		rep.Warn(Warning{
			Section: questionsSection.Name,
			Row:     c.row,
			Message: fmt.Sprintf("patient info %s in question %q points at an empty cell", ref, q.Text),
		})
	}
	q.PatientInfoRevealed = resolved
	q.PatientInfoRef = ref.String()
	return nil
}

func validCategory(c Category) bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}
