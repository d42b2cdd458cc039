package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/freezer/internal/routes"
)

// RoutesCmd implements the 'routes' command.
type RoutesCmd struct{}

func (r *RoutesCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	eps, err := cfg.RouteSource().Entrypoints()
	if err != nil {
		return err
	}
	scan := routes.Scan(eps)

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tURL\tSITEMAP")
	for _, e := range scan.Entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Entrypoint.Name, e.URL, yesNo(e.Entrypoint.IsMapped()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if scan.Skipped > 0 {
		_, _ = fmt.Fprintf(g.out(), "\nSkipped %d routes that need parameters:\n", scan.Skipped)
		for _, err := range scan.SkipErrors {
			_, _ = fmt.Fprintf(g.out(), "  %v\n", err)
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
