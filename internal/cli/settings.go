package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dkovacevic/adscope/internal/output"
	"github.com/dkovacevic/adscope/internal/settings"
)

// SettingsCmd shows or changes the persisted debug settings blob.
type SettingsCmd struct {
	Path       string `help:"Settings file (default: platform config dir)"`
	Debug      *bool  `help:"Enable or disable debug capture"`
	Toasts     *bool  `help:"Enable or disable event toasts"`
	KeepEvents *int   `help:"History retention (1..1000)"`
}

// Run executes the settings command
func (c *SettingsCmd) Run(globals *Globals) error {
	path := c.Path
	if path == "" {
		path = globals.Config.Defaults.SettingsPath
	}
	if path == "" {
		var err error
		path, err = settings.DefaultPath()
		if err != nil {
			return fmt.Errorf("locate settings file: %w", err)
		}
	}

	mgr := settings.NewManager(settings.NewFileStore(path), globals.logger())
	cur := mgr.Load()

	changed := false
	if c.Debug != nil {
		cur.DebugEnabled = *c.Debug
		changed = true
	}
	if c.Toasts != nil {
		cur.ShowToasts = *c.Toasts
		changed = true
	}
	if c.KeepEvents != nil {
		cur.KeepEvents = *c.KeepEvents
		changed = true
	}
	if changed {
		if err := mgr.Save(cur); err != nil {
			return err
		}
	}

	if globals.Format == "ndjson" {
		data, err := json.Marshal(cur)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(globals.Stdout, "%s\n", data)
		return err
	}
	for _, kv := range [][2]string{
		{"settings file: ", path},
		{"debug enabled: ", strconv.FormatBool(cur.DebugEnabled)},
		{"show toasts:   ", strconv.FormatBool(cur.ShowToasts)},
		{"keep events:   ", strconv.Itoa(cur.KeepEvents)},
	} {
		if err := output.RenderKV(globals.Stdout, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}
