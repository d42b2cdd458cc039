// Command freezer renders a web application's routes into a static site.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/freezer/cmd/freezer/commands"
	ferrors "git.home.luguber.info/inful/freezer/internal/foundation/errors"
	"git.home.luguber.info/inful/freezer/internal/version"
)

func main() {
	cli := &commands.CLI{}
	globals := &commands.Global{Out: os.Stdout}

	parser := kong.Parse(cli,
		kong.Name("freezer"),
		kong.Description("Freeze a web application into static files."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := parser.Run(globals, cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
