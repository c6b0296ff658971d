package capture

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 2 * time.Second

	// Per-tick bounds so one poll never monopolizes its goroutine, and a
	// cap on the dedup set so it cannot grow without limit.
	maxEntriesPerPoll  = 512
	maxForwardsPerPoll = 128
	maxSeenHashes      = 4096
)

// ErrPollerRunning is returned by Start when the poller is already active.
var ErrPollerRunning = errors.New("system log poller already running")

// Entry is one structured system-log record as returned by a LogSource.
type Entry struct {
	Time    time.Time
	Message string
}

// LogSource is the platform log store boundary. EntriesSince returns up
// to limit entries positioned strictly after since, oldest first. The
// poller tolerates sources that return duplicates or stale entries.
type LogSource interface {
	EntriesSince(since time.Time, limit int) ([]Entry, error)
}

// SystemLogPoller recovers lines from subsystems that bypass stdio. It
// periodically queries a LogSource past a watermark, deduplicates matches
// by content hash, and forwards each tick's batch to the sink in one call.
type SystemLogPoller struct {
	log      *zap.Logger
	clk      clock.Clock
	sink     Sink
	source   LogSource
	tokens   []string
	interval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	// Owned by the poll goroutine between Start and Stop.
	sessionStart time.Time
	watermark    time.Time
	seen         map[uint64]struct{}
}

// PollerOption configures a SystemLogPoller.
type PollerOption func(*SystemLogPoller)

// WithPollerLogger sets the zap logger.
func WithPollerLogger(log *zap.Logger) PollerOption {
	return func(p *SystemLogPoller) { p.log = log }
}

// WithPollerClock substitutes the clock. Tests drive the ticker with a
// mock.
func WithPollerClock(clk clock.Clock) PollerOption {
	return func(p *SystemLogPoller) { p.clk = clk }
}

// WithPollInterval overrides the poll cadence.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *SystemLogPoller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// NewSystemLogPoller creates a poller forwarding token-matching entries
// from source to sink. It does nothing until Start.
func NewSystemLogPoller(sink Sink, source LogSource, tokens []string, opts ...PollerOption) *SystemLogPoller {
	p := &SystemLogPoller{
		log:      zap.NewNop(),
		clk:      clock.New(),
		sink:     sink,
		source:   source,
		tokens:   tokens,
		interval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start records the session watermark and begins polling. Starting an
// already-running poller fails with ErrPollerRunning.
func (p *SystemLogPoller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPollerRunning
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	now := p.clk.Now()
	p.sessionStart = now
	p.watermark = now
	p.seen = make(map[uint64]struct{})

	go p.loop(p.stop, p.done)
	p.log.Debug("system log poller started", zap.Duration("interval", p.interval))
	return nil
}

// Stop cancels the poll timer. Idempotent, and safe when never started.
func (p *SystemLogPoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	<-done
	p.log.Debug("system log poller stopped")
}

// Running reports whether the poller is active.
func (p *SystemLogPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SystemLogPoller) loop(stop, done chan struct{}) {
	defer close(done)

	ticker := p.clk.Ticker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll runs one tick: scan past the watermark, filter, dedup, forward,
// and commit the advanced watermark so the range is never re-scanned.
func (p *SystemLogPoller) poll() {
	entries, err := p.source.EntriesSince(p.watermark, maxEntriesPerPoll)
	if err != nil {
		p.log.Warn("log store query failed", zap.Error(err))
		return
	}

	candidate := p.watermark
	var batch []string
	for _, e := range entries {
		// The candidate advances on every entry, matching or not, so a
		// burst of irrelevant output still makes progress.
		if e.Time.After(candidate) {
			candidate = e.Time
		}
		if e.Time.Before(p.sessionStart) || !e.Time.After(p.watermark) {
			continue
		}
		msg, ok := matchToken(e.Message, p.tokens)
		if !ok {
			continue
		}
		h := entryHash(e.Time, e.Message)
		if _, dup := p.seen[h]; dup {
			continue
		}
		if len(p.seen) >= maxSeenHashes {
			p.seen = make(map[uint64]struct{})
		}
		p.seen[h] = struct{}{}
		if len(batch) < maxForwardsPerPoll {
			batch = append(batch, msg)
		}
	}
	p.watermark = candidate

	if len(batch) > 0 {
		p.sink.LogLines(batch)
	}
}

// entryHash fingerprints an entry by timestamp and message so repeats
// across polls collapse to one forward.
func entryHash(ts time.Time, message string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(strconv.FormatInt(ts.UnixNano(), 10))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(message)
	return d.Sum64()
}
