package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/freezer/internal/eventstore"
	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" default:"20" help:"Number of builds to show"`
	JSON  bool `name:"json" help:"Print summaries as JSON"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Events.Database == "" {
		return ferrors.ConfigError("events.database is not configured").Build()
	}

	store, err := eventstore.NewSQLiteStore(cfg.Events.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	projection := eventstore.NewBuildHistoryProjection(store, historySize)
	if err := projection.Rebuild(context.Background()); err != nil {
		return err
	}
	builds := projection.GetHistory()
	if h.Limit > 0 && len(builds) > h.Limit {
		builds = builds[:h.Limit]
	}

	if h.JSON {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		return enc.Encode(builds)
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "BUILD\tSTARTED\tSTATUS\tPAGES\tDURATION\tERROR")
	for _, b := range builds {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			b.BuildID, b.StartedAt.Format(time.DateTime), b.Status, b.Pages,
			b.Duration.Truncate(time.Millisecond), b.ErrorMessage)
	}
	return tw.Flush()
}
