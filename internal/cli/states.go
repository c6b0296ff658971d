package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dkovacevic/adscope/internal/domain"
	"github.com/dkovacevic/adscope/internal/output"
	"github.com/dkovacevic/adscope/internal/store"
)

// StatesCmd replays an exported event file and summarizes per-unit state.
type StatesCmd struct {
	Input   string   `arg:"" help:"Exported event file (JSON array)"`
	Catalog []string `short:"c" help:"Ad unit IDs to always include, in catalog order"`
	Events  bool     `short:"e" help:"Also print each replayed event and revenue posting"`
}

// Run executes the states command
func (c *StatesCmd) Run(globals *Globals) error {
	events, err := readEventFile(c.Input)
	if err != nil {
		return err
	}

	st := store.New(
		store.WithLogger(globals.logger()),
		store.WithSettings(domain.Settings{DebugEnabled: true, KeepEvents: domain.KeepEventsMax}),
	)
	defer st.Close()

	ndjson := globals.Format == "ndjson"
	var em *output.Emitter
	if ndjson {
		em = output.NewEmitter(globals.Stdout)
	}
	var tw *output.TextWriter
	if !ndjson && c.Events {
		color := false
		if f, ok := globals.Stdout.(*os.File); ok {
			color = output.IsTerminal(f)
		}
		tw = output.NewTextWriter(globals.Stdout, color)
	}

	// Export order is newest-first; replay oldest-first so the fold sees
	// events in the order they happened. Impressions carrying an eCPM are
	// replayed as revenue postings too (revenue per impression is eCPM/1000),
	// since the export schema holds lifecycle events only.
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		st.Log(ev)
		if em != nil {
			if err := em.Event(ev); err != nil {
				return err
			}
		}
		if tw != nil {
			if err := tw.WriteEvent(ev); err != nil {
				return err
			}
		}
		if ev.Action != domain.ActionImpression || ev.ECPM <= 0 {
			continue
		}
		rev := domain.RevenueEvent{
			Time:      ev.Time,
			Unit:      ev.Unit,
			AdUnitID:  ev.AdUnitID,
			Network:   ev.Network,
			LineItem:  ev.LineItem,
			ValueUSD:  ev.ECPM / 1000,
			Precision: ev.Precision,
		}
		st.LogRevenue(rev)
		if em != nil {
			if err := em.Revenue(rev); err != nil {
				return err
			}
		}
		if tw != nil {
			if err := tw.WriteRevenue(rev); err != nil {
				return err
			}
		}
	}

	states := st.GetAdStates(c.Catalog)
	byNetwork := st.RevenueByNetwork()

	if em != nil {
		return em.Summary(output.SummaryOutput{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Events:    len(events),
			TotalUSD:  st.TotalRevenueUSD(),
			ByNetwork: byNetwork,
			States:    states,
		})
	}

	if err := output.RenderStatesTable(globals.Stdout, states); err != nil {
		return err
	}
	if len(byNetwork) > 0 {
		if err := output.RenderHeading(globals.Stdout, "Revenue by network"); err != nil {
			return err
		}
		if err := output.RenderRevenueTable(globals.Stdout, byNetwork, st.TotalRevenueUSD()); err != nil {
			return err
		}
	}
	if !globals.Quiet {
		fmt.Fprintf(globals.Stdout, "%d event(s) replayed\n", len(events))
	}
	return nil
}

// readEventFile loads a JSON event array written by the export surface.
func readEventFile(path string) ([]domain.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event file: %w", err)
	}
	var events []domain.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse event file: %w", err)
	}
	return events, nil
}
