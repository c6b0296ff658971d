package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dkovacevic/adscope/internal/config"
	"github.com/dkovacevic/adscope/internal/output"
)

// ConfigCmd shows the resolved configuration and where it came from.
type ConfigCmd struct{}

// Run executes the config command
func (c *ConfigCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if globals.Format == "ndjson" {
		data, err := json.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(globals.Stdout, "%s\n", data)
		return err
	}

	file := config.ConfigFile()
	if file == "" {
		file = "(none, using defaults)"
	}
	for _, kv := range [][2]string{
		{"config file:   ", file},
		{"format:        ", cfg.Format},
		{"tokens:        ", strings.Join(cfg.Defaults.Tokens, ", ")},
		{"journal:       ", orNone(cfg.Defaults.Journal)},
		{"poll interval: ", cfg.Defaults.PollInterval},
		{"keep events:   ", strconv.Itoa(cfg.Defaults.KeepEvents)},
		{"settings path: ", orNone(cfg.Defaults.SettingsPath)},
	} {
		if err := output.RenderKV(globals.Stdout, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
