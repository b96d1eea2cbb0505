package clicommand

import "github.com/urfave/cli"

var NomwCommands = []cli.Command{
	SetupCommand,
	KubectlCommand,
	RunCommand,
	{
		Name:  "cache",
		Usage: "Manage the local tool cache",
		Subcommands: []cli.Command{
			CacheWarmCommand,
			CacheClearCommand,
		},
	},
}
