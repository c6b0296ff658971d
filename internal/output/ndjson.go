package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/dkovacevic/adscope/internal/domain"
	"github.com/dkovacevic/adscope/internal/store"
)

// NDJSONWriter writes captured telemetry as NDJSON
type NDJSONWriter struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewNDJSONWriter creates a new NDJSON writer
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false) // keep log text unescaped and avoid extra allocations
	return &NDJSONWriter{
		w:       w,
		encoder: enc,
	}
}

// LineOutput is one captured log line
type LineOutput struct {
	Type          string `json:"type"` // Always "line"
	SchemaVersion int    `json:"schemaVersion"`
	Timestamp     string `json:"timestamp"`
	Text          string `json:"text"`
}

// EventOutput is one recorded ad lifecycle event
type EventOutput struct {
	Type          string  `json:"type"` // Always "event"
	SchemaVersion int     `json:"schemaVersion"`
	Timestamp     string  `json:"timestamp"`
	Unit          string  `json:"unit"`
	Action        string  `json:"action"`
	AdUnitID      string  `json:"adUnitId,omitempty"`
	Network       string  `json:"network,omitempty"`
	LineItem      string  `json:"lineItem,omitempty"`
	ECPM          float64 `json:"ecpm,omitempty"`
	Precision     string  `json:"precision,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// RevenueOutput is one recorded revenue posting
type RevenueOutput struct {
	Type          string  `json:"type"` // Always "revenue"
	SchemaVersion int     `json:"schemaVersion"`
	Timestamp     string  `json:"timestamp"`
	Unit          string  `json:"unit"`
	AdUnitID      string  `json:"adUnitId,omitempty"`
	Network       string  `json:"network,omitempty"`
	ValueUSD      float64 `json:"valueUsd"`
	Precision     string  `json:"precision,omitempty"`
}

// SummaryOutput aggregates the retained history for one emission
type SummaryOutput struct {
	Type          string                 `json:"type"` // Always "summary"
	SchemaVersion int                    `json:"schemaVersion"`
	Timestamp     string                 `json:"timestamp"`
	Events        int                    `json:"events"`
	Lines         int                    `json:"lines"`
	TotalUSD      float64                `json:"totalUsd"`
	ByNetwork     []store.NetworkRevenue `json:"byNetwork,omitempty"`
	States        []domain.AdStateInfo   `json:"states,omitempty"`
}

// WarningOutput represents a warning message
type WarningOutput struct {
	Type          string `json:"type"` // Always "warning"
	SchemaVersion int    `json:"schemaVersion"`
	Message       string `json:"message"`
}

// MetadataOutput describes runtime/tool metadata for agents
type MetadataOutput struct {
	Type          string `json:"type"` // Always "metadata"
	SchemaVersion int    `json:"schemaVersion"`
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	BuildDate     string `json:"build_date,omitempty"`
}

// WriteLine writes a captured log line
func (nw *NDJSONWriter) WriteLine(line domain.LogLine) error {
	return nw.encoder.Encode(LineOutput{
		Type:          "line",
		SchemaVersion: SchemaVersion,
		Timestamp:     line.Time.UTC().Format(time.RFC3339Nano),
		Text:          line.Text,
	})
}

// WriteEvent writes an ad lifecycle event
func (nw *NDJSONWriter) WriteEvent(ev domain.Event) error {
	return nw.encoder.Encode(EventOutput{
		Type:          "event",
		SchemaVersion: SchemaVersion,
		Timestamp:     ev.Time.UTC().Format(time.RFC3339Nano),
		Unit:          string(ev.Unit),
		Action:        string(ev.Action),
		AdUnitID:      ev.AdUnitID,
		Network:       ev.Network,
		LineItem:      ev.LineItem,
		ECPM:          ev.ECPM,
		Precision:     ev.Precision,
		Error:         ev.Error,
	})
}

// WriteRevenue writes a revenue posting
func (nw *NDJSONWriter) WriteRevenue(rev domain.RevenueEvent) error {
	return nw.encoder.Encode(RevenueOutput{
		Type:          "revenue",
		SchemaVersion: SchemaVersion,
		Timestamp:     rev.Time.UTC().Format(time.RFC3339Nano),
		Unit:          string(rev.Unit),
		AdUnitID:      rev.AdUnitID,
		Network:       rev.Network,
		ValueUSD:      rev.ValueUSD,
		Precision:     rev.Precision,
	})
}

// WriteSummary writes an aggregate snapshot
func (nw *NDJSONWriter) WriteSummary(s SummaryOutput) error {
	s.Type = "summary"
	s.SchemaVersion = SchemaVersion
	return nw.encoder.Encode(s)
}

// WriteWarning writes a warning message
func (nw *NDJSONWriter) WriteWarning(msg string) error {
	return nw.encoder.Encode(WarningOutput{
		Type:          "warning",
		SchemaVersion: SchemaVersion,
		Message:       msg,
	})
}

// WriteMetadata writes tool metadata
func (nw *NDJSONWriter) WriteMetadata(version, commit, buildDate string) error {
	return nw.encoder.Encode(MetadataOutput{
		Type:          "metadata",
		SchemaVersion: SchemaVersion,
		Version:       version,
		Commit:        commit,
		BuildDate:     buildDate,
	})
}
