package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

// ErrTapInstalled is returned by Start when the process stdio is already
// redirected. The descriptor pair is a process-global resource; only one
// tap may own it.
var ErrTapInstalled = errors.New("stream tap already installed")

// Sink receives batches of captured lines. The store satisfies this.
type Sink interface {
	LogLines(lines []string)
}

// redirector is the narrow platform adapter for stdio redirection. Install
// swaps the real stdout/stderr descriptors for a pipe and returns the read
// end plus a mirror writer backed by the preserved originals. Restore puts
// the original descriptors back, which also ends the pipe with EOF.
type redirector interface {
	Install() (readEnd *os.File, mirror io.Writer, err error)
	Restore() error
}

// StreamTap makes console output written by uncooperative SDKs observable:
// it redirects the process's stdout and stderr through a pipe, mirrors
// everything back to the original descriptors, and forwards token-matching
// lines to the sink in batches.
type StreamTap struct {
	log    *zap.Logger
	sink   Sink
	tokens []string
	rd     redirector

	mu        sync.Mutex
	installed bool
	readEnd   *os.File
	mirror    io.Writer
	done      chan struct{}
}

// TapOption configures a StreamTap.
type TapOption func(*StreamTap)

// WithTapLogger sets the zap logger.
func WithTapLogger(log *zap.Logger) TapOption {
	return func(t *StreamTap) { t.log = log }
}

// withRedirector substitutes the platform adapter. Used by tests.
func withRedirector(rd redirector) TapOption {
	return func(t *StreamTap) { t.rd = rd }
}

// NewStreamTap creates a tap forwarding lines that contain any of the
// tokens to sink. It does nothing until Start.
func NewStreamTap(sink Sink, tokens []string, opts ...TapOption) *StreamTap {
	t := &StreamTap{
		log:    zap.NewNop(),
		sink:   sink,
		tokens: tokens,
		rd:     newOSRedirector(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start redirects stdio and begins draining the pipe. A second Start
// without an intervening Stop fails with ErrTapInstalled. A platform
// that cannot redirect reports an error and the source stays disabled;
// the store and the system log poller are unaffected.
func (t *StreamTap) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.installed {
		return ErrTapInstalled
	}

	readEnd, mirror, err := t.rd.Install()
	if err != nil {
		return fmt.Errorf("install stdio redirect: %w", err)
	}

	t.installed = true
	t.readEnd = readEnd
	t.mirror = mirror
	t.done = make(chan struct{})
	go t.drain(readEnd, mirror, t.done)

	t.log.Debug("stream tap installed", zap.Strings("tokens", t.tokens))
	return nil
}

// Stop restores the original descriptors exactly once, waits for the
// drain goroutine to see EOF, and closes the pipe's read end. Safe to
// call when never started, and safe to call repeatedly.
func (t *StreamTap) Stop() {
	t.mu.Lock()
	if !t.installed {
		t.mu.Unlock()
		return
	}
	t.installed = false
	readEnd, done := t.readEnd, t.done
	t.readEnd, t.done = nil, nil
	t.mirror = nil
	t.mu.Unlock()

	// Restoring drops the last write end of the pipe, so the drain
	// goroutine unblocks with EOF rather than being cancelled mid-read.
	if err := t.rd.Restore(); err != nil {
		t.log.Warn("stdio restore failed", zap.Error(err))
	}
	<-done
	_ = readEnd.Close()
	t.log.Debug("stream tap removed")
}

// Mirror returns a writer backed by the original stdout while the tap is
// installed, nil otherwise. Output written here reaches the terminal
// without passing back through the capture pipe.
func (t *StreamTap) Mirror() io.Writer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mirror
}

// Installed reports whether the tap currently owns the stdio descriptors.
func (t *StreamTap) Installed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.installed
}

// drain reads whatever is available, mirrors it verbatim, and forwards
// each chunk's accumulated matches as one batch.
func (t *StreamTap) drain(r *os.File, mirror io.Writer, done chan struct{}) {
	defer close(done)

	asm := NewAssembler(t.tokens...)
	buf := make([]byte, 64<<10)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if mirror != nil {
				_, _ = mirror.Write(buf[:n])
			}
			if batch := asm.Feed(buf[:n]); len(batch) > 0 {
				t.sink.LogLines(batch)
			}
		}
		if err != nil {
			// EOF after restore, or the read end was torn down. Either
			// way, hand over a trailing unterminated line before exit.
			if line, ok := asm.Flush(); ok {
				t.sink.LogLines([]string{line})
			}
			return
		}
	}
}
