// Package monitor keeps a gesture-capturing probe attached to whichever
// window currently receives input, surviving disruptive UI transitions
// such as full-screen ad presentation. It also houses the motion-heuristic
// shake detector that toggles the debug console.
package monitor

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// ErrMonitorRunning is returned by Start when the monitor is already active.
var ErrMonitorRunning = errors.New("reattach monitor already running")

// Trigger is a window or scene lifecycle signal fed into the monitor.
type Trigger int

const (
	TriggerWindowBecameKey Trigger = iota
	TriggerWindowResignedKey
	TriggerWindowBecameVisible
	TriggerWindowBecameHidden
	TriggerAppBecameActive
	TriggerSceneActivated
	TriggerSceneWillDeactivate
)

func (t Trigger) String() string {
	switch t {
	case TriggerWindowBecameKey:
		return "windowBecameKey"
	case TriggerWindowResignedKey:
		return "windowResignedKey"
	case TriggerWindowBecameVisible:
		return "windowBecameVisible"
	case TriggerWindowBecameHidden:
		return "windowBecameHidden"
	case TriggerAppBecameActive:
		return "appBecameActive"
	case TriggerSceneActivated:
		return "sceneActivated"
	case TriggerSceneWillDeactivate:
		return "sceneWillDeactivate"
	default:
		return "unknown"
	}
}

// teardown reports whether the signal means a window or probe referenced by
// the registry may be going away.
func (t Trigger) teardown() bool {
	switch t {
	case TriggerWindowResignedKey, TriggerWindowBecameHidden, TriggerSceneWillDeactivate:
		return true
	default:
		return false
	}
}

// disruptive marks the signals historically tied to full-screen content and
// scene churn; these get the long backoff profile.
func (t Trigger) disruptive() bool {
	switch t {
	case TriggerWindowResignedKey, TriggerWindowBecameVisible,
		TriggerWindowBecameHidden, TriggerSceneWillDeactivate:
		return true
	default:
		return false
	}
}

// Window is the host UI's window, reduced to a stable identity.
type Window interface {
	ID() string
}

// WindowProvider locates the window currently receiving input. Returns
// false when no window is key, which can legitimately happen mid-transition.
type WindowProvider interface {
	KeyWindow() (Window, bool)
}

// Probe is an installed gesture receiver. AcquireFocus asks the host to
// route input to the probe; it may fail right after a window becomes key,
// so the monitor retries it over the backoff window.
type Probe interface {
	AcquireFocus() bool
}

// ProbeFactory installs a new probe on a window. fire is invoked by the
// probe when it captures the toggle gesture.
type ProbeFactory func(w Window, fire func()) (Probe, error)

// backoffProfile is the successive waits before each reassert attempt.
// Short covers routine key-window churn; long covers transitions where the
// window needs noticeably more time to become focusable again.
var (
	shortProfile = []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 150 * time.Millisecond}
	longProfile  = []time.Duration{150 * time.Millisecond, 300 * time.Millisecond, 550 * time.Millisecond}
)

// toggleRefractory is the minimum spacing between console toggles, so one
// physical shake cannot fire twice.
const toggleRefractory = 600 * time.Millisecond

// ReattachMonitor owns a registry of window→probe associations and a single
// pending reassert action. Every lifecycle trigger replaces the pending
// action, so a burst of signals collapses into one delayed, idempotent
// re-installation attempt.
type ReattachMonitor struct {
	log      *zap.Logger
	clk      clock.Clock
	provider WindowProvider
	newProbe ProbeFactory

	mu         sync.Mutex
	running    bool
	gen        uint64
	pending    *clock.Timer
	probes     map[string]Probe
	toggle     func()
	lastToggle time.Time
}

// MonitorOption configures a ReattachMonitor.
type MonitorOption func(*ReattachMonitor)

// WithMonitorLogger sets the zap logger.
func WithMonitorLogger(log *zap.Logger) MonitorOption {
	return func(m *ReattachMonitor) { m.log = log }
}

// WithMonitorClock substitutes the clock backing the debounce and backoff
// timers.
func WithMonitorClock(clk clock.Clock) MonitorOption {
	return func(m *ReattachMonitor) { m.clk = clk }
}

// NewReattachMonitor creates a monitor over the given window provider and
// probe factory. It does nothing until Start.
func NewReattachMonitor(provider WindowProvider, factory ProbeFactory, opts ...MonitorOption) *ReattachMonitor {
	m := &ReattachMonitor{
		log:      zap.NewNop(),
		clk:      clock.New(),
		provider: provider,
		newProbe: factory,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start activates the monitor with onToggle as the gesture action and
// immediately schedules the first probe installation. Starting an active
// monitor fails with ErrMonitorRunning.
func (m *ReattachMonitor) Start(onToggle func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrMonitorRunning
	}
	m.running = true
	m.toggle = onToggle
	m.probes = make(map[string]Probe)
	m.lastToggle = time.Time{}
	m.scheduleLocked(shortProfile)
	m.log.Debug("reattach monitor started")
	return nil
}

// Stop cancels any pending reassert and drops the registry. Idempotent.
func (m *ReattachMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	m.gen++
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.probes = nil
	m.log.Debug("reattach monitor stopped")
}

// Running reports whether the monitor is active.
func (m *ReattachMonitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// HandleTrigger feeds a lifecycle signal. w is the window the signal is
// about, nil for application and scene level signals. Teardown signals
// prune the window's registry entry so the monitor never keeps a probe
// alive past its window.
func (m *ReattachMonitor) HandleTrigger(trig Trigger, w Window) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if trig.teardown() && w != nil {
		delete(m.probes, w.ID())
	}
	profile := shortProfile
	if trig.disruptive() {
		profile = longProfile
	}
	m.scheduleLocked(profile)
	m.log.Debug("reassert scheduled", zap.Stringer("trigger", trig))
}

// Rearm forces an immediate short-profile reassert. Called after the
// console closes so the probe regains focus without waiting for the next
// lifecycle signal.
func (m *ReattachMonitor) Rearm() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.scheduleLocked(shortProfile)
}

// scheduleLocked replaces the pending reassert with a fresh one following
// profile. Caller holds mu.
func (m *ReattachMonitor) scheduleLocked(profile []time.Duration) {
	m.gen++
	gen := m.gen
	if m.pending != nil {
		m.pending.Stop()
	}
	m.pending = m.clk.AfterFunc(profile[0], func() {
		m.reassert(gen, profile, 0)
	})
}

// reassert runs attempt number step of the given scheduling generation. A
// newer generation or a stopped monitor invalidates it silently.
func (m *ReattachMonitor) reassert(gen uint64, profile []time.Duration, step int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running || gen != m.gen {
		return
	}

	if m.attemptLocked() {
		m.pending = nil
		return
	}
	next := step + 1
	if next >= len(profile) {
		m.pending = nil
		m.log.Debug("reassert gave up", zap.Int("attempts", len(profile)))
		return
	}
	m.pending = m.clk.AfterFunc(profile[next], func() {
		m.reassert(gen, profile, next)
	})
}

// attemptLocked performs one install-and-focus pass against the current
// key window. Caller holds mu.
func (m *ReattachMonitor) attemptLocked() bool {
	w, ok := m.provider.KeyWindow()
	if !ok {
		return false
	}
	probe, ok := m.probes[w.ID()]
	if !ok {
		var err error
		probe, err = m.newProbe(w, m.fireToggle)
		if err != nil {
			m.log.Warn("probe install failed", zap.String("window", w.ID()), zap.Error(err))
			return false
		}
		m.probes[w.ID()] = probe
		m.log.Debug("probe installed", zap.String("window", w.ID()))
	}
	return probe.AcquireFocus()
}

// fireToggle runs the console-toggle action, spaced by the refractory
// interval.
func (m *ReattachMonitor) fireToggle() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	now := m.clk.Now()
	if !m.lastToggle.IsZero() && now.Sub(m.lastToggle) < toggleRefractory {
		m.mu.Unlock()
		return
	}
	m.lastToggle = now
	toggle := m.toggle
	m.mu.Unlock()

	if toggle != nil {
		toggle()
	}
}
