package cli

import (
	"fmt"

	"github.com/dkovacevic/adscope/internal/domain"
	"github.com/dkovacevic/adscope/internal/store"
)

// ExportCmd re-exports an event file through the retention window. Useful
// for trimming a large capture to the history a device would have kept.
type ExportCmd struct {
	Input string `arg:"" help:"Exported event file (JSON array)"`
	Keep  int    `default:"200" help:"Retention window applied before export"`
}

// Run executes the export command
func (c *ExportCmd) Run(globals *Globals) error {
	if !domain.ValidKeepEvents(c.Keep) {
		return fmt.Errorf("keep %d outside %d..%d", c.Keep, domain.KeepEventsMin, domain.KeepEventsMax)
	}

	events, err := readEventFile(c.Input)
	if err != nil {
		return err
	}

	st := store.New(
		store.WithLogger(globals.logger()),
		store.WithSettings(domain.Settings{DebugEnabled: true, KeepEvents: c.Keep}),
	)
	defer st.Close()

	for i := len(events) - 1; i >= 0; i-- {
		st.Log(events[i])
	}

	data, err := st.ExportJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(globals.Stdout, "%s\n", data)
	return err
}
