package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/deckbuilder/cmd/deckbuilder/commands"
	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	parser := kong.Parse(cli,
		kong.Name("deckbuilder"),
		kong.Description("Build reveal.js slide decks from a YAML document."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err := parser.Run(global, cli); err != nil {
		derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
