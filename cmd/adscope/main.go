package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dkovacevic/adscope/internal/cli"
	"github.com/dkovacevic/adscope/internal/config"
	"github.com/dkovacevic/adscope/internal/output"
)

func main() {
	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		_ = output.RenderWarning(os.Stderr, fmt.Sprintf("failed to load config: %v", err))
		cfg = config.Default()
	}

	var c cli.CLI

	ctx := kong.Parse(&c,
		kong.Name("adscope"),
		kong.Description("adscope: debug telemetry capture for ad SDK integrations\n\nSTART HERE: adscope tail -j <journal.ndjson>"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	if err := ctx.Run(globals); err != nil {
		fmt.Fprintf(os.Stderr, "adscope: %v\n", err)
		os.Exit(1)
	}
}
