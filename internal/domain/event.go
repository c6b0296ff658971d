package domain

import (
	"encoding/json"
	"time"
)

// AdUnit classifies the placement format an event belongs to. Labels that
// are not part of the known set are preserved verbatim so that events from
// newer SDK versions survive a round trip through the store.
type AdUnit string

const (
	AdUnitInterstitial AdUnit = "interstitial"
	AdUnitRewarded     AdUnit = "rewarded"
	AdUnitAppOpen      AdUnit = "appOpen"
	AdUnitBanner       AdUnit = "banner"
	AdUnitNative       AdUnit = "native"
)

// IsKnown reports whether the unit is one of the built-in formats.
// Unknown labels are legal and treated as custom formats.
func (u AdUnit) IsKnown() bool {
	switch u {
	case AdUnitInterstitial, AdUnitRewarded, AdUnitAppOpen, AdUnitBanner, AdUnitNative:
		return true
	}
	return false
}

// AdAction identifies a point in the ad lifecycle. As with AdUnit, unknown
// labels pass through untouched.
type AdAction string

const (
	ActionLoadStart   AdAction = "loadStart"
	ActionLoadSuccess AdAction = "loadSuccess"
	ActionLoadFail    AdAction = "loadFail"
	ActionShowStart   AdAction = "showStart"
	ActionShowSuccess AdAction = "showSuccess"
	ActionShowFail    AdAction = "showFail"
	ActionDismiss     AdAction = "dismiss"
	ActionClick       AdAction = "click"
	ActionImpression  AdAction = "impression"
)

// IsKnown reports whether the action is one of the built-in lifecycle points.
func (a AdAction) IsKnown() bool {
	switch a {
	case ActionLoadStart, ActionLoadSuccess, ActionLoadFail,
		ActionShowStart, ActionShowSuccess, ActionShowFail,
		ActionDismiss, ActionClick, ActionImpression:
		return true
	}
	return false
}

// Event is one recorded ad lifecycle occurrence. Events are immutable once
// logged; the store copies them by value.
type Event struct {
	Time      time.Time `json:"time"`
	Unit      AdUnit    `json:"unit"`
	Action    AdAction  `json:"action"`
	AdUnitID  string    `json:"adUnitId,omitempty"`
	Network   string    `json:"network,omitempty"`
	LineItem  string    `json:"lineItem,omitempty"`
	ECPM      float64   `json:"ecpm,omitempty"`
	Precision string    `json:"precision,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// RevenueEvent is one recorded revenue posting. Immutable once logged.
type RevenueEvent struct {
	Time      time.Time `json:"time"`
	Unit      AdUnit    `json:"unit"`
	AdUnitID  string    `json:"adUnitId,omitempty"`
	Network   string    `json:"network,omitempty"`
	LineItem  string    `json:"lineItem,omitempty"`
	ValueUSD  float64   `json:"valueUsd"`
	Precision string    `json:"precision,omitempty"`
}

// LogLine is a free-text line captured from stdout/stderr or the system log.
type LogLine struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// MarshalEvents serializes retained events to a JSON array matching the
// wire schema used by the export surface.
func MarshalEvents(events []Event) ([]byte, error) {
	if events == nil {
		events = []Event{}
	}
	return json.Marshal(events)
}
