package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/freezer/internal/config"
)

// Global carries state shared by every command.
type Global struct {
	// Out receives command output meant for the user; logs go to stderr.
	Out io.Writer
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"freezer.yaml" env:"FREEZER_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Freeze the application into static files"`
	Routes  RoutesCmd  `cmd:"" help:"List entrypoints and skipped routes without building"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Preview PreviewCmd `cmd:"" help:"Serve the frozen site locally"`
	Daemon  DaemonCmd  `cmd:"" help:"Rebuild on a schedule and when sources change"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the event store"`
}

// AfterApply runs after flag parsing; logging is set up before any config
// is read and refined once it is.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	setupLogging(c.Verbose, config.LoggingConfig{Level: config.LogLevelInfo, Format: config.LogFormatText})
	return nil
}

// loadConfig loads the configuration and applies its logging section.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	setupLogging(c.Verbose, cfg.Logging)
	return cfg, nil
}

// setupLogging installs the default logger. Precedence for the level:
// -v, then FREEZER_LOG_LEVEL, then the configuration.
func setupLogging(verbose bool, lc config.LoggingConfig) {
	level := lc.Level.Slog()
	if env := os.Getenv("FREEZER_LOG_LEVEL"); env != "" {
		level = config.NormalizeLogLevel(env).Slog()
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if lc.Format == config.LogFormatJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}
