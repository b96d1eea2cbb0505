package clicommand

import (
	"context"
	"strconv"

	"github.com/urfave/cli"
)

const cacheWarmHelpDescription = `Usage:

   nomw cache warm [options]

Description:
   Downloads the kubectl for the given client major version into the cache
   without contacting a cluster. Useful for baking images or preparing
   air-gapped hosts ahead of time.

   The client major version tracks the server's minor version, so a 1.30
   cluster needs --major 30.

Example:

   $ nomw cache warm --major 30 --major 31`

type CacheWarmConfig struct {
	Majors []string `cli:"major" normalize:"list" validate:"required"`

	CacheRoot string `cli:"cache-root" normalize:"filepath"`
	Mirror    string `cli:"mirror"`

	// Global flags
	Debug     bool   `cli:"debug"`
	LogLevel  string `cli:"log-level"`
	LogFormat string `cli:"log-format"`
	NoColor   bool   `cli:"no-color"`
}

var CacheWarmCommand = cli.Command{
	Name:        "warm",
	Usage:       "Pre-downloads a kubectl for a client major version",
	Description: cacheWarmHelpDescription,
	Flags: flatten([]cli.Flag{
		cli.StringSliceFlag{
			Name:   "major",
			Value:  &cli.StringSlice{},
			Usage:  "A client major version to fetch, e.g. 30 for 1.30 clusters. Repeatable",
			EnvVar: "NOMW_CACHE_WARM_MAJOR",
		},
	}, cacheFlags, globalFlags),
	Action: func(c *cli.Context) error {
		cfg := CacheWarmConfig{}
		loadConfig(c, &cfg)
		l := createLogger(&cfg)

		p := createProvisioner(l, &cfg)
		for _, m := range cfg.Majors {
			major, err := strconv.Atoi(m)
			if err != nil {
				l.Fatal("Bad major version %q: %v", m, err)
			}

			dir, err := p.Ensure(context.Background(), major)
			if err != nil {
				l.Fatal("Failed to provision major version %d: %v", major, err)
			}
			l.Info("Cache entry for %d ready at %s", major, dir)
		}
		return nil
	},
}
