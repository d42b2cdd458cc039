package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/freezer/internal/build"
	"git.home.luguber.info/inful/freezer/internal/config"
	"git.home.luguber.info/inful/freezer/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output    string `short:"o" help:"Output directory (overrides output.directory)"`
	Origin    string `help:"Application origin to render from (overrides site.origin)"`
	NoSitemap bool   `name:"no-sitemap" help:"Skip sitemap generation"`
	NoAssets  bool   `name:"no-assets" help:"Skip copying static assets"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	b.apply(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunBuild(ctx, g, cfg)
}

func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.Origin != "" {
		cfg.Site.Origin = b.Origin
	}
	if b.NoSitemap {
		cfg.Build.Sitemap.Enabled = false
	}
	if b.NoAssets {
		cfg.Build.Expose = false
	}
}

// RunBuild runs one build of cfg and prints its summary.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config) error {
	w, err := newWiring(cfg, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			slog.Warn("Failed to close build integrations", logfields.Error(err))
		}
	}()

	result, err := w.service.Run(ctx, build.BuildRequest{Config: cfg, Trigger: "cli"})
	if result != nil && result.Report != nil {
		_, _ = fmt.Fprintln(g.out(), result.Report.Summary())
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Froze %d pages into %s\n", result.Pages, result.OutputPath)
	return nil
}
