package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/freezer/internal/daemon"
	"git.home.luguber.info/inful/freezer/internal/logfields"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Listen string `name:"listen" help:"Address for /metrics and /status (overrides metrics.listen)"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if d.Listen != "" {
		cfg.Metrics.Listen = d.Listen
	}

	w, err := newWiring(cfg, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			slog.Warn("Failed to close build integrations", logfields.Error(err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("Starting daemon", logfields.Path(root.Config))
	dm := daemon.New(w.service, cfg, daemon.Options{
		ConfigPath: root.Config,
		Registry:   w.registry,
	})
	if err := dm.Run(ctx); err != nil {
		return err
	}
	slog.Info("Daemon stopped")
	return nil
}
