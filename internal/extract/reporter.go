package extract

import (
	"sync"

	"github.com/rs/zerolog"
)

// Warning is a non-fatal finding: the sheet parsed, but something about it
// is unusual enough that the author should look.
type Warning struct {
	Section string `json:"section" yaml:"section"`
	Row     int    `json:"row,omitempty" yaml:"row,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// Reporter receives warnings during extraction. It must not influence the
// returned document.
type Reporter interface {
	Warn(w Warning)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(w Warning)

func (f ReporterFunc) Warn(w Warning) { f(w) }

type discard struct{}

func (discard) Warn(Warning) {}

// LogReporter writes warnings to a zerolog logger.
type LogReporter struct {
	logger zerolog.Logger
}

func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Warn(w Warning) {
	evt := r.logger.Warn().Str("section", w.Section)
	if w.Row > 0 {
		evt = evt.Int("row", w.Row)
	}
	evt.Msg(w.Message)
}

// Collector keeps warnings in arrival order.
type Collector struct {
	mu       sync.Mutex
	warnings []Warning
}

func (c *Collector) Warn(w Warning) {
	c.mu.Lock()
	c.warnings = append(c.warnings, w)
	c.mu.Unlock()
}

// Warnings returns a copy of the collected warnings.
func (c *Collector) Warnings() []Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Tee fans warnings out to every non-nil reporter.
func Tee(reporters ...Reporter) Reporter {
	var rs []Reporter
	for _, r := range reporters {
		if r != nil {
			rs = append(rs, r)
		}
	}
	return ReporterFunc(func(w Warning) {
		for _, r := range rs {
			r.Warn(w)
		}
	})
}
