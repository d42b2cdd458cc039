package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/freezer/internal/preview"
)

// PreviewCmd serves the output directory.
type PreviewCmd struct {
	Addr  string `name:"addr" default:"127.0.0.1:8000" help:"Address to serve on"`
	Dir   string `short:"d" name:"dir" help:"Directory to serve (defaults to output.directory)"`
	Build bool   `name:"build" help:"Build before serving"`
}

func (p *PreviewCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dir := p.Dir
	if dir == "" || p.Build {
		cfg, err := root.loadConfig()
		if err != nil {
			return err
		}
		if p.Build {
			if err := RunBuild(ctx, g, cfg); err != nil {
				return err
			}
		}
		if dir == "" {
			dir = cfg.Output.Directory
		}
	}
	return preview.Serve(ctx, dir, p.Addr)
}
