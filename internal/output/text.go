package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dkovacevic/adscope/internal/domain"
)

// TextWriter renders captured telemetry as human-readable lines, styled
// when attached to a terminal.
type TextWriter struct {
	w     io.Writer
	color bool
}

// NewTextWriter creates a text writer. color enables lipgloss styling.
func NewTextWriter(w io.Writer, color bool) *TextWriter {
	return &TextWriter{w: w, color: color}
}

const textTimeLayout = "15:04:05.000"

// WriteLine renders one captured log line.
func (t *TextWriter) WriteLine(line domain.LogLine) error {
	ts := line.Time.Format(textTimeLayout)
	text := line.Text
	if t.color {
		ts = Styles.Timestamp.Render(ts)
		text = Styles.Message.Render(text)
	}
	_, err := fmt.Fprintf(t.w, "%s %s\n", ts, text)
	return err
}

// WriteEvent renders one lifecycle event.
func (t *TextWriter) WriteEvent(ev domain.Event) error {
	ts := ev.Time.Format(textTimeLayout)
	unit := string(ev.Unit)
	action := string(ev.Action)
	if t.color {
		ts = Styles.Timestamp.Render(ts)
		unit = Styles.Unit.Render(unit)
		action = ActionStyle(ev.Action).Render(action)
	}
	suffix := ""
	if ev.AdUnitID != "" {
		suffix += " " + ev.AdUnitID
	}
	if ev.Network != "" {
		network := ev.Network
		if t.color {
			network = Styles.Network.Render(network)
		}
		suffix += " via " + network
	}
	if ev.Error != "" {
		errText := ev.Error
		if t.color {
			errText = Styles.Danger.Render(errText)
		}
		suffix += " error=" + errText
	}
	_, err := fmt.Fprintf(t.w, "%s %s %s%s\n", ts, unit, action, suffix)
	return err
}

// WriteRevenue renders one revenue posting.
func (t *TextWriter) WriteRevenue(rev domain.RevenueEvent) error {
	ts := rev.Time.Format(textTimeLayout)
	unit := string(rev.Unit)
	value := fmt.Sprintf("$%s", formatUSD(rev.ValueUSD))
	if t.color {
		ts = Styles.Timestamp.Render(ts)
		unit = Styles.Unit.Render(unit)
		value = Styles.Revenue.Render(value)
	}
	suffix := ""
	if rev.Network != "" {
		suffix = " via " + rev.Network
	}
	_, err := fmt.Fprintf(t.w, "%s %s revenue %s%s\n", ts, unit, value, suffix)
	return err
}

// styledTo reports whether writes to w should carry ANSI styling.
func styledTo(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && IsTerminal(f)
}

// RenderHeading writes a section heading, styled on terminals.
func RenderHeading(w io.Writer, text string) error {
	if styledTo(w) {
		text = Styles.Header.Render(text)
	}
	_, err := fmt.Fprintf(w, "%s\n", text)
	return err
}

// RenderKV writes one pre-padded label and its value on a single line.
func RenderKV(w io.Writer, label, value string) error {
	if styledTo(w) {
		label = Styles.Label.Render(label)
		value = Styles.Value.Render(value)
	}
	_, err := fmt.Fprintf(w, "%s%s\n", label, value)
	return err
}

// RenderWarning writes a warning line, styled on terminals.
func RenderWarning(w io.Writer, msg string) error {
	text := "warning: " + msg
	if styledTo(w) {
		text = Styles.Warning.Render(text)
	}
	_, err := fmt.Fprintf(w, "%s\n", text)
	return err
}
