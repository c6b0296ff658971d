package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovacevic/adscope/internal/domain"
)

func TestTextWriterLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, false)

	ts := time.Date(2026, 8, 25, 9, 15, 30, 250_000_000, time.UTC)
	require.NoError(t, w.WriteLine(domain.LogLine{Time: ts, Text: "[AdSDK] ready"}))

	assert.Equal(t, "09:15:30.250 [AdSDK] ready\n", buf.String())
}

func TestTextWriterEvent(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, false)

	require.NoError(t, w.WriteEvent(domain.Event{
		Time:     time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC),
		Unit:     domain.AdUnitBanner,
		Action:   domain.ActionLoadFail,
		AdUnitID: "banner-1",
		Network:  "admob",
		Error:    "no fill",
	}))

	out := buf.String()
	assert.Contains(t, out, "banner loadFail banner-1 via admob error=no fill")
}

func TestTextWriterRevenue(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, false)

	require.NoError(t, w.WriteRevenue(domain.RevenueEvent{
		Time:     time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC),
		Unit:     domain.AdUnitRewarded,
		ValueUSD: 0.0025,
		Network:  "applovin",
	}))

	assert.Contains(t, buf.String(), "rewarded revenue $0.002500 via applovin")
}

func TestRenderHelpers(t *testing.T) {
	// Buffers are not terminals, so output stays plain.
	var buf bytes.Buffer
	require.NoError(t, RenderHeading(&buf, "Revenue by network"))
	require.NoError(t, RenderKV(&buf, "format:        ", "text"))
	require.NoError(t, RenderWarning(&buf, "journal missing"))

	assert.Equal(t, "Revenue by network\nformat:        text\nwarning: journal missing\n", buf.String())
}
