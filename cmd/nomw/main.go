package main

import (
	"fmt"
	"os"

	"github.com/karellen/nomw/clicommand"
	"github.com/karellen/nomw/version"
	"github.com/urfave/cli"
)

const appHelpTemplate = `Usage:

  {{.Name}} <command> [options...]

Available commands are:

  {{range .Commands}}{{.Name}}{{with .ShortName}}, {{.}}{{end}}{{ "\t" }}{{.Usage}}
  {{end}}
Use "{{.Name}} <command> --help" for more information about a command.

`

func main() {
	cli.AppHelpTemplate = appHelpTemplate

	app := cli.NewApp()
	app.Name = "nomw"
	app.Usage = "Operates a version-matched Kubernetes client and the process plumbing behind it"
	app.Version = version.Version()
	app.Commands = clicommand.NomwCommands

	// Commands log and exit themselves on operational failures; anything
	// surfacing here is bad usage or a bug, and still has to map to a
	// nonzero exit.
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
