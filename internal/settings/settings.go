// Package settings persists the debug telemetry settings blob and handles
// the one-time migration from the legacy standalone enabled flag.
package settings

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/dkovacevic/adscope/internal/domain"
)

// Storage keys. The blob key holds the full settings JSON; the legacy key
// held a bare boolean before the blob format existed.
const (
	BlobKey          = "adscope.settings"
	LegacyEnabledKey = "adscope.debug_enabled"
)

// ErrKeepEventsRange is returned by Save for retention values outside the
// allowed range.
var ErrKeepEventsRange = fmt.Errorf("keepEvents must be between %d and %d", domain.KeepEventsMin, domain.KeepEventsMax)

// BlobStore is the key/value persistence boundary. Implementations must
// treat a missing key as (nil, false), not an error.
type BlobStore interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Manager reads and writes the settings blob over a BlobStore.
type Manager struct {
	store BlobStore
	log   *zap.Logger
}

// NewManager creates a settings manager. A nil logger disables logging.
func NewManager(store BlobStore, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, log: log}
}

// Load returns the current settings, falling back through the persisted
// blob, the legacy enabled key, and finally the defaults. It never fails:
// a malformed blob is logged and replaced by defaults.
func (m *Manager) Load() domain.Settings {
	if data, ok := m.store.Get(BlobKey); ok {
		var s domain.Settings
		if err := json.Unmarshal(data, &s); err == nil {
			if !domain.ValidKeepEvents(s.KeepEvents) {
				s.KeepEvents = domain.KeepEventsDefault
			}
			return s
		}
		m.log.Warn("malformed settings blob, using defaults", zap.Int("bytes", len(data)))
		return domain.DefaultSettings()
	}

	if s, migrated := m.migrateLegacy(); migrated {
		return s
	}

	return domain.DefaultSettings()
}

// Save validates and persists the settings blob.
func (m *Manager) Save(s domain.Settings) error {
	if !domain.ValidKeepEvents(s.KeepEvents) {
		return ErrKeepEventsRange
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := m.store.Set(BlobKey, data); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

// migrateLegacy folds the legacy boolean key into a fresh blob and deletes
// it. Running it again is a no-op because the key is gone.
func (m *Manager) migrateLegacy() (domain.Settings, bool) {
	data, ok := m.store.Get(LegacyEnabledKey)
	if !ok {
		return domain.Settings{}, false
	}

	s := domain.DefaultSettings()
	var enabled bool
	if err := json.Unmarshal(data, &enabled); err == nil {
		s.DebugEnabled = enabled
	}

	if err := m.Save(s); err != nil {
		// Leave the legacy key in place so the next load can retry.
		m.log.Warn("legacy settings migration failed", zap.Error(err))
		return s, true
	}
	if err := m.store.Delete(LegacyEnabledKey); err != nil {
		m.log.Warn("could not delete legacy settings key", zap.Error(err))
	}
	m.log.Debug("migrated legacy settings key", zap.Bool("debugEnabled", s.DebugEnabled))
	return s, true
}
