package extract

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tcg/scenario-sheets/internal/sheet"
)

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(zerolog.New(&buf))
	r.Warn(Warning{Section: "dispositions", Row: 7, Message: "disposition \"Transfer\" has no responses"})

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"section":"dispositions"`, `"row":7`, `has no responses`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestTee(t *testing.T) {
	var a, b Collector
	count := 0
	rep := Tee(&a, nil, &b, ReporterFunc(func(Warning) { count++ }))
	rep.Warn(Warning{Section: "imaging", Message: "first"})
	rep.Warn(Warning{Section: "imaging", Message: "second"})

	if len(a.Warnings()) != 2 || len(b.Warnings()) != 2 || count != 2 {
		t.Errorf("expected every reporter to see 2 warnings, got %d, %d, %d",
			len(a.Warnings()), len(b.Warnings()), count)
	}
	if a.Warnings()[1].Message != "second" {
		t.Errorf("expected arrival order, got %+v", a.Warnings())
	}
}

func TestWarningsDoNotChangeDocument(t *testing.T) {
	g := fixtureGrid(t)
	g.Set(rowFirstQuestion, 4, sheet.Value{})

	quiet := mustExtract(t, g, Options{})
	var c Collector
	loud := mustExtract(t, g, Options{Reporter: &c})
	if len(c.Warnings()) == 0 {
		t.Fatal("expected warnings from the modified sheet")
	}
	qb, _ := json.Marshal(quiet)
	lb, _ := json.Marshal(loud)
	if !bytes.Equal(qb, lb) {
		t.Error("expected identical documents with and without a reporter")
	}
}
