package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dkovacevic/adscope/internal/capture"
	"github.com/dkovacevic/adscope/internal/domain"
	"github.com/dkovacevic/adscope/internal/filter"
	"github.com/dkovacevic/adscope/internal/output"
	"github.com/dkovacevic/adscope/internal/store"
)

// TailCmd captures ad SDK log lines from the process's own stdio and/or an
// NDJSON journal and streams the matches.
type TailCmd struct {
	Journal      string        `short:"j" help:"NDJSON journal file to poll for system log entries"`
	Tokens       []string      `short:"t" help:"Capture lines containing any of these tokens"`
	Pattern      string        `short:"p" help:"Keep only lines matching this regex"`
	Exclude      []string      `short:"x" help:"Drop lines matching these regexes"`
	Tap          bool          `default:"true" negatable:"" help:"Redirect this process's stdout/stderr through the capture tap"`
	PollInterval time.Duration `help:"Journal poll interval (default from config)"`
	Duration     time.Duration `short:"d" help:"Stop after this long (0 = until interrupted)"`
	KeepEvents   int           `help:"History retention (default from config)"`
	Summary      bool          `default:"true" negatable:"" help:"Print a capture summary on exit"`
}

// lineSink renders one captured line.
type lineSink interface {
	WriteLine(domain.LogLine) error
}

// captureSink filters each batch, feeds the store, and hands the batch to
// the display pump. Display is best-effort: when the pump falls behind,
// batches are dropped from the screen but never from the store.
type captureSink struct {
	st    *store.Store
	chain *filter.Chain
	ch    chan []string
}

func (s *captureSink) LogLines(batch []string) {
	batch = s.chain.Apply(batch)
	if len(batch) == 0 {
		return
	}
	s.st.LogLines(batch)
	select {
	case s.ch <- batch:
	default:
	}
}

// Run executes the tail command
func (c *TailCmd) Run(globals *Globals) error {
	cfg := globals.Config

	tokens := c.Tokens
	if len(tokens) == 0 {
		tokens = cfg.Defaults.Tokens
	}
	journal := c.Journal
	if journal == "" {
		journal = cfg.Defaults.Journal
	}
	if !c.Tap && journal == "" {
		return fmt.Errorf("nothing to capture: tap disabled and no journal configured")
	}

	pollInterval := c.PollInterval
	if pollInterval <= 0 {
		if d, err := time.ParseDuration(cfg.Defaults.PollInterval); err == nil {
			pollInterval = d
		}
	}
	keep := c.KeepEvents
	if keep <= 0 {
		keep = cfg.Defaults.KeepEvents
	}
	if !domain.ValidKeepEvents(keep) {
		return fmt.Errorf("keep-events %d outside %d..%d", keep, domain.KeepEventsMin, domain.KeepEventsMax)
	}

	chain, err := filter.FromFlags(c.Pattern, c.Exclude)
	if err != nil {
		return fmt.Errorf("bad filter pattern: %w", err)
	}

	log := globals.logger()
	defer func() { _ = log.Sync() }()

	st := store.New(
		store.WithLogger(log),
		store.WithSettings(domain.Settings{DebugEnabled: true, KeepEvents: keep}),
	)
	defer st.Close()

	sink := &captureSink{st: st, chain: chain, ch: make(chan []string, 64)}

	// Output goes to the real stdout. When the tap is active that means
	// its mirror, so displayed lines are not captured a second time.
	var out io.Writer = globals.Stdout

	if c.Tap {
		tap := capture.NewStreamTap(sink, tokens, capture.WithTapLogger(log))
		if err := tap.Start(); err != nil {
			return fmt.Errorf("install stdio tap: %w", err)
		}
		defer tap.Stop()
		if m := tap.Mirror(); m != nil {
			out = m
		}
		globals.Debug("stdio tap installed")
	}

	if journal != "" {
		if _, statErr := os.Stat(journal); os.IsNotExist(statErr) {
			warn(out, globals.Format, fmt.Sprintf("journal %s does not exist yet; waiting for entries", journal))
		}
		source := capture.NewJournalSource(journal)
		poller := capture.NewSystemLogPoller(sink, source, tokens,
			capture.WithPollerLogger(log),
			capture.WithPollInterval(pollInterval),
		)
		if err := poller.Start(); err != nil {
			return fmt.Errorf("start journal poller: %w", err)
		}
		defer poller.Stop()
		globals.Debug("polling journal %s every %s", journal, pollInterval)
	}

	writer := newLineSink(out, globals.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if c.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Duration)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case batch := <-sink.ch:
				now := time.Now()
				for _, text := range batch {
					if err := writer.WriteLine(domain.LogLine{Time: now, Text: text}); err != nil {
						return err
					}
				}
			}
		}
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if c.Summary && !globals.Quiet {
		c.printSummary(out, globals.Format, st)
	}
	return nil
}

func (c *TailCmd) printSummary(out io.Writer, format string, st *store.Store) {
	lines := st.DebugLines()
	events := st.Events()
	if format == "ndjson" {
		_ = output.NewEmitter(out).Summary(output.SummaryOutput{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Events:    len(events),
			Lines:     len(lines),
			TotalUSD:  st.TotalRevenueUSD(),
			ByNetwork: st.RevenueByNetwork(),
		})
		return
	}
	fmt.Fprintf(out, "\ncaptured %d line(s), %d event(s)\n", len(lines), len(events))
}

// warn emits a warning in the active output format.
func warn(w io.Writer, format, msg string) {
	if format == "ndjson" {
		_ = output.NewEmitter(w).Warning(msg)
		return
	}
	_ = output.RenderWarning(w, msg)
}

// emitterSink adapts the NDJSON emitter to the display pump.
type emitterSink struct {
	em *output.Emitter
}

func (s emitterSink) WriteLine(line domain.LogLine) error { return s.em.Line(line) }

// newLineSink picks the renderer for the configured format.
func newLineSink(w io.Writer, format string) lineSink {
	if format == "ndjson" {
		return emitterSink{em: output.NewEmitter(w)}
	}
	color := false
	if f, ok := w.(*os.File); ok {
		color = output.IsTerminal(f)
	}
	return output.NewTextWriter(w, color)
}
