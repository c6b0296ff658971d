package domain

// Retention bounds for KeepEvents. Values outside the range are rejected
// by the settings editor, not by the store.
const (
	KeepEventsMin     = 1
	KeepEventsMax     = 1000
	KeepEventsDefault = 200
)

// Settings controls debug telemetry capture. Persisted as a single JSON
// blob; see the settings package for storage and migration.
type Settings struct {
	DebugEnabled bool `json:"debugEnabled"`
	ShowToasts   bool `json:"showToasts"`
	KeepEvents   int  `json:"keepEvents"`
}

// DefaultSettings returns the settings used when nothing has been persisted
// or the persisted blob cannot be decoded.
func DefaultSettings() Settings {
	return Settings{
		DebugEnabled: false,
		ShowToasts:   true,
		KeepEvents:   KeepEventsDefault,
	}
}

// ValidKeepEvents reports whether n is inside the allowed retention range.
func ValidKeepEvents(n int) bool {
	return n >= KeepEventsMin && n <= KeepEventsMax
}
