package output

import (
	"io"

	"github.com/dkovacevic/adscope/internal/domain"
)

// Emitter wraps NDJSONWriter with helpers that reuse one encoder.
type Emitter struct {
	w *NDJSONWriter
}

func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: NewNDJSONWriter(w)}
}

func (e *Emitter) Line(line domain.LogLine) error      { return e.w.WriteLine(line) }
func (e *Emitter) Event(ev domain.Event) error         { return e.w.WriteEvent(ev) }
func (e *Emitter) Revenue(rev domain.RevenueEvent) error { return e.w.WriteRevenue(rev) }
func (e *Emitter) Summary(s SummaryOutput) error       { return e.w.WriteSummary(s) }
func (e *Emitter) Warning(msg string) error            { return e.w.WriteWarning(msg) }
func (e *Emitter) Metadata(version, commit, buildDate string) error {
	return e.w.WriteMetadata(version, commit, buildDate)
}
