package extract

import (
	"errors"
	"fmt"
)

// Structural failures. Every fatal error returned by Extract wraps one of
// these in a *StructuralError.
var (
	ErrMissingAnchor    = errors.New("missing section anchor")
	ErrSectionSize      = errors.New("unexpected section size")
	ErrVitalsMismatch   = errors.New("vital sign names differ between time points")
	ErrInvalidBedStatus = errors.New("invalid bed status")
	ErrDuplicateName    = errors.New("duplicate name")
	ErrCommaInName      = errors.New("name contains a comma")
	ErrInvalidScore     = errors.New("invalid score")
	ErrInvalidCategory  = errors.New("invalid question category")
	ErrUnknownKeyInfo   = errors.New("unknown key information")
	ErrInvalidReference = errors.New("invalid cell reference")
	ErrEmptyKeyWords    = errors.New("key words cannot be empty")
)

// StructuralError reports a sheet that cannot be decoded. Section and Row
// point the author at the offending place in the source document.
type StructuralError struct {
	Kind    error
	Section string
	Row     int
	Detail  string
}

func (e *StructuralError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s (row %d): %v: %s", e.Section, e.Row, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %v: %s", e.Section, e.Kind, e.Detail)
}

func (e *StructuralError) Unwrap() error { return e.Kind }

func structural(kind error, section string, row int, format string, args ...interface{}) error {
	return &StructuralError{
		Kind:    kind,
		Section: section,
		Row:     row,
		Detail:  fmt.Sprintf(format, args...),
	}
}

// IsStructural reports whether err is a structural extraction failure.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
