package clicommand

import (
	"github.com/urfave/cli"
)

const cacheClearHelpDescription = `Usage:

   nomw cache clear [options]

Description:
   Deletes the entire tool cache. The next setup re-downloads whatever it
   needs, so this is safe to run at any time no cluster is being operated.

Example:

   $ nomw cache clear`

type CacheClearConfig struct {
	CacheRoot string `cli:"cache-root" normalize:"filepath"`

	// Global flags
	Debug     bool   `cli:"debug"`
	LogLevel  string `cli:"log-level"`
	LogFormat string `cli:"log-format"`
	NoColor   bool   `cli:"no-color"`
}

var CacheClearCommand = cli.Command{
	Name:        "clear",
	Usage:       "Deletes the tool cache",
	Description: cacheClearHelpDescription,
	Flags:       flatten([]cli.Flag{CacheRootFlag}, globalFlags),
	Action: func(c *cli.Context) error {
		cfg := CacheClearConfig{}
		loadConfig(c, &cfg)
		l := createLogger(&cfg)

		p := createProvisioner(l, &cfg)
		if err := p.Clear(); err != nil {
			l.Fatal("Failed to clear %s: %v", p.Root(), err)
		}

		l.Info("Cleared %s", p.Root())
		return nil
	},
}
