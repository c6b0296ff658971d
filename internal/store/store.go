// Package store owns the bounded, ordered histories of ad lifecycle events,
// revenue postings, and captured log lines, plus the derived per-ad-unit
// state. All mutable state belongs to a single run loop goroutine; public
// methods are safe from any goroutine.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dkovacevic/adscope/internal/domain"
	"github.com/dkovacevic/adscope/internal/settings"
)

// defaultCoalesceQuantum is how long the notifier waits after the first
// trigger before delivering, absorbing further triggers in the meantime.
const defaultCoalesceQuantum = 10 * time.Millisecond

// ToastFunc receives a one-line description of a freshly logged event when
// toasts are enabled. Rendering is the caller's concern; the callback must
// return promptly.
type ToastFunc func(message string)

// NetworkRevenue is one row of a RevenueByNetwork result.
type NetworkRevenue struct {
	Network string  `json:"network"`
	USD     float64 `json:"usd"`
}

// Store is the single point of mutation for all debug telemetry.
type Store struct {
	log     *zap.Logger
	clk     clock.Clock
	quantum time.Duration
	mgr     *settings.Manager
	toast   ToastFunc

	cmds chan func()
	quit chan struct{}
	done chan struct{}

	// notifyCh has capacity 1: an occupied slot is the pending flag, so a
	// burst of triggers collapses into one delivery.
	notifyCh     chan struct{}
	notifierDone chan struct{}

	closeOnce sync.Once
	curPinned bool

	// Owned by the run loop. Histories are newest-first.
	cur     domain.Settings
	events  []domain.Event
	revenue []domain.RevenueEvent
	lines   []domain.LogLine
	states  map[string]*domain.AdStateInfo

	observers *observerList
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the zap logger. Default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithClock substitutes the clock used for timestamps and coalescing.
func WithClock(clk clock.Clock) Option {
	return func(s *Store) { s.clk = clk }
}

// WithCoalesceQuantum overrides the notification coalescing window.
func WithCoalesceQuantum(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.quantum = d
		}
	}
}

// WithSettingsManager attaches persistence: initial settings are loaded
// from it and SetSettings saves through it.
func WithSettingsManager(mgr *settings.Manager) Option {
	return func(s *Store) { s.mgr = mgr }
}

// WithSettings overrides the initial settings without persistence. Takes
// precedence over WithSettingsManager's loaded value.
func WithSettings(initial domain.Settings) Option {
	return func(s *Store) {
		s.cur = initial
		s.curPinned = true
	}
}

// WithToast installs the toast callback.
func WithToast(fn ToastFunc) Option {
	return func(s *Store) { s.toast = fn }
}

// New creates a store and starts its run loop. Call Close to release the
// loop; stored history is process-lifetime data and has no other teardown.
func New(opts ...Option) *Store {
	s := &Store{
		log:          zap.NewNop(),
		clk:          clock.New(),
		quantum:      defaultCoalesceQuantum,
		cmds:         make(chan func(), 64),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		notifyCh:     make(chan struct{}, 1),
		notifierDone: make(chan struct{}),
		cur:          domain.DefaultSettings(),
		states:       map[string]*domain.AdStateInfo{},
		observers:    newObserverList(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mgr != nil && !s.curPinned {
		s.cur = s.mgr.Load()
	}

	go s.run()
	go s.notifier()
	return s
}

// Close stops the run loop and notifier. Pending writes already enqueued
// are applied first. Safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		// The close command sits behind any already-queued writes, so the
		// loop drains them before shutting down.
		s.enqueue(func() { close(s.quit) })
	})
	<-s.done
	<-s.notifierDone
}

// Log records an ad lifecycle event. No-op while debug capture is disabled.
func (s *Store) Log(ev domain.Event) {
	if ev.Time.IsZero() {
		ev.Time = s.clk.Now()
	}
	s.enqueue(func() {
		if !s.cur.DebugEnabled {
			return
		}
		s.events = prepend(s.events, ev, s.cur.KeepEvents)
		if ev.AdUnitID != "" {
			s.stateFor(ev.AdUnitID).Apply(ev.Action)
		}
		if s.cur.ShowToasts && s.toast != nil {
			s.toast(toastLine(ev))
		}
		s.markChanged()
	})
}

// LogRevenue records a revenue posting. No-op while disabled.
func (s *Store) LogRevenue(rev domain.RevenueEvent) {
	if rev.Time.IsZero() {
		rev.Time = s.clk.Now()
	}
	s.enqueue(func() {
		if !s.cur.DebugEnabled {
			return
		}
		s.revenue = prepend(s.revenue, rev, s.cur.KeepEvents)
		if rev.AdUnitID != "" {
			s.stateFor(rev.AdUnitID).RevenueUSD += rev.ValueUSD
		}
		s.markChanged()
	})
}

// LogLine records one free-text line.
func (s *Store) LogLine(text string) {
	s.LogLines([]string{text})
}

// LogLines records a batch of lines in a single trim and a single
// notification. Burst ingestion from the capture sources must use this so
// observers see one change per batch, not one per line.
func (s *Store) LogLines(texts []string) {
	if len(texts) == 0 {
		return
	}
	now := s.clk.Now()
	batch := make([]domain.LogLine, len(texts))
	for i, t := range texts {
		batch[i] = domain.LogLine{Time: now, Text: t}
	}
	s.enqueue(func() {
		if !s.cur.DebugEnabled {
			return
		}
		// Newest-first: the last line of the batch ends up at the head.
		for _, ln := range batch {
			s.lines = prepend(s.lines, ln, s.cur.KeepEvents)
		}
		s.markChanged()
	})
}

// GetAdStates returns a snapshot of per-unit state in catalog order,
// lazily creating zeroed entries for cataloged IDs seen for the first
// time. State derived from events whose IDs are missing from the catalog
// is appended after the cataloged entries, sorted by ID.
func (s *Store) GetAdStates(catalog []string) []domain.AdStateInfo {
	var out []domain.AdStateInfo
	s.enqueueWait(func() {
		seen := make(map[string]bool, len(catalog))
		out = make([]domain.AdStateInfo, 0, len(s.states))
		for _, id := range catalog {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, *s.stateFor(id))
		}
		extra := make([]string, 0)
		for id := range s.states {
			if !seen[id] {
				extra = append(extra, id)
			}
		}
		sort.Strings(extra)
		for _, id := range extra {
			out = append(out, *s.states[id])
		}
	})
	return out
}

// Events returns the retained event history, newest first.
func (s *Store) Events() []domain.Event {
	var out []domain.Event
	s.enqueueWait(func() {
		out = append([]domain.Event(nil), s.events...)
	})
	return out
}

// RevenueEvents returns the retained revenue history, newest first.
func (s *Store) RevenueEvents() []domain.RevenueEvent {
	var out []domain.RevenueEvent
	s.enqueueWait(func() {
		out = append([]domain.RevenueEvent(nil), s.revenue...)
	})
	return out
}

// DebugLines returns the retained log-line history, newest first.
func (s *Store) DebugLines() []domain.LogLine {
	var out []domain.LogLine
	s.enqueueWait(func() {
		out = append([]domain.LogLine(nil), s.lines...)
	})
	return out
}

// TotalRevenueUSD folds ValueUSD over the currently retained revenue
// events. Summation is decimal so micro-cent postings do not drift.
func (s *Store) TotalRevenueUSD() float64 {
	var total decimal.Decimal
	s.enqueueWait(func() {
		for _, rev := range s.revenue {
			total = total.Add(decimal.NewFromFloat(rev.ValueUSD))
		}
	})
	return total.InexactFloat64()
}

// RevenueByNetwork groups retained revenue events by network label and
// returns sums in descending order. Events without a network fall under
// "unknown".
func (s *Store) RevenueByNetwork() []NetworkRevenue {
	var out []NetworkRevenue
	s.enqueueWait(func() {
		sums := map[string]decimal.Decimal{}
		for _, rev := range s.revenue {
			network := rev.Network
			if network == "" {
				network = "unknown"
			}
			sums[network] = sums[network].Add(decimal.NewFromFloat(rev.ValueUSD))
		}
		out = make([]NetworkRevenue, 0, len(sums))
		for network, sum := range sums {
			out = append(out, NetworkRevenue{Network: network, USD: sum.InexactFloat64()})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].USD != out[j].USD {
				return out[i].USD > out[j].USD
			}
			return out[i].Network < out[j].Network
		})
	})
	return out
}

// ExportJSON serializes the retained event history to a JSON array.
func (s *Store) ExportJSON() ([]byte, error) {
	return domain.MarshalEvents(s.Events())
}

// Settings returns the current settings.
func (s *Store) Settings() domain.Settings {
	var out domain.Settings
	s.enqueueWait(func() { out = s.cur })
	return out
}

// SetSettings validates, persists (when a manager is attached), applies,
// and notifies. A reduced KeepEvents trims all histories immediately.
func (s *Store) SetSettings(next domain.Settings) error {
	if !domain.ValidKeepEvents(next.KeepEvents) {
		return settings.ErrKeepEventsRange
	}
	if s.mgr != nil {
		if err := s.mgr.Save(next); err != nil {
			return err
		}
	}
	s.enqueueWait(func() {
		s.cur = next
		s.events = trim(s.events, next.KeepEvents)
		s.revenue = trim(s.revenue, next.KeepEvents)
		s.lines = trim(s.lines, next.KeepEvents)
		s.log.Debug("settings updated",
			zap.Bool("debugEnabled", next.DebugEnabled),
			zap.Int("keepEvents", next.KeepEvents))
		s.markChanged()
	})
	return nil
}

// Subscribe registers a change observer and returns its unsubscribe
// function. Observers run on the notifier goroutine, never on the store
// loop, so they may freely call back into the store.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	return s.observers.add(fn)
}

// run is the single writer. Every mutation and consistent read executes
// here in submission order.
func (s *Store) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case fn := <-s.cmds:
			fn()
		}
	}
}

func (s *Store) enqueue(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.quit:
	}
}

// enqueueWait runs fn on the loop and blocks the caller until it is done,
// so the caller observes every write ordered before it.
func (s *Store) enqueueWait(fn func()) {
	doneCh := make(chan struct{})
	s.enqueue(func() {
		fn()
		close(doneCh)
	})
	select {
	case <-doneCh:
	case <-s.quit:
	}
}

// markChanged sets the pending notification flag. Runs on the loop.
func (s *Store) markChanged() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// notifier delivers coalesced change signals: after the first trigger it
// waits one quantum, absorbs anything that arrived meanwhile, and fans out
// a single callback round.
func (s *Store) notifier() {
	defer close(s.notifierDone)
	for {
		select {
		case <-s.quit:
			return
		case <-s.notifyCh:
			t := s.clk.Timer(s.quantum)
			select {
			case <-t.C:
			case <-s.quit:
				t.Stop()
				return
			}
			select {
			case <-s.notifyCh:
			default:
			}
			s.observers.fanout()
		}
	}
}

// stateFor returns the aggregate for an ad unit ID, creating the zero
// state on first reference. Runs on the loop.
func (s *Store) stateFor(adUnitID string) *domain.AdStateInfo {
	st, ok := s.states[adUnitID]
	if !ok {
		st = domain.NewAdStateInfo(adUnitID)
		s.states[adUnitID] = st
	}
	return st
}

func toastLine(ev domain.Event) string {
	if ev.AdUnitID != "" {
		return fmt.Sprintf("%s %s (%s)", ev.Unit, ev.Action, ev.AdUnitID)
	}
	return fmt.Sprintf("%s %s", ev.Unit, ev.Action)
}

// prepend inserts v at the head and trims to keep. Histories are small
// (KeepEvents ≤ 1000), so the head copy is cheap.
func prepend[T any](list []T, v T, keep int) []T {
	var zero T
	list = append(list, zero)
	copy(list[1:], list)
	list[0] = v
	return trim(list, keep)
}

func trim[T any](list []T, keep int) []T {
	if keep > 0 && len(list) > keep {
		list = list[:keep]
	}
	return list
}
