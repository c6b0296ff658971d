package domain

// LoadState describes where an ad unit is in its load cycle.
type LoadState string

const (
	LoadStateNotLoad LoadState = "notLoad"
	LoadStateLoading LoadState = "loading"
	LoadStateSuccess LoadState = "success"
	LoadStateFailed  LoadState = "failed"
)

// ShowState describes whether an ad unit has ever been shown.
type ShowState string

const (
	ShowStateNo     ShowState = "no"
	ShowStateShowed ShowState = "showed"
)

// AdStateInfo is the derived aggregate for one ad unit ID. Exactly one
// instance exists per ID; counters never decrease while the process runs.
type AdStateInfo struct {
	AdUnitID     string    `json:"adUnitId"`
	LoadState    LoadState `json:"loadState"`
	ShowState    ShowState `json:"showState"`
	RevenueUSD   float64   `json:"revenueUsd"`
	SuccessCount int       `json:"successCount"`
	FailedCount  int       `json:"failedCount"`
	ShowedCount  int       `json:"showedCount"`
}

// NewAdStateInfo returns the zero state for an ad unit ID.
func NewAdStateInfo(adUnitID string) *AdStateInfo {
	return &AdStateInfo{
		AdUnitID:  adUnitID,
		LoadState: LoadStateNotLoad,
		ShowState: ShowStateNo,
	}
}

// Apply folds a lifecycle action into the state. Events without an ad unit
// ID never reach here; the store filters them before lookup.
func (s *AdStateInfo) Apply(action AdAction) {
	switch action {
	case ActionLoadStart:
		// Only a fresh or failed unit transitions to loading; a loadStart
		// while loading or after success is a no-op.
		if s.LoadState == LoadStateNotLoad || s.LoadState == LoadStateFailed {
			s.LoadState = LoadStateLoading
		}
	case ActionLoadSuccess:
		s.LoadState = LoadStateSuccess
		s.SuccessCount++
	case ActionLoadFail:
		s.LoadState = LoadStateFailed
		s.FailedCount++
	case ActionShowStart:
		s.ShowState = ShowStateShowed
	case ActionShowSuccess, ActionImpression:
		s.ShowState = ShowStateShowed
		s.ShowedCount++
	}
}
