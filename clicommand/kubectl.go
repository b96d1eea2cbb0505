package clicommand

import (
	"context"
	"errors"
	"os"

	"github.com/karellen/nomw/kubeclient"
	"github.com/karellen/nomw/process"
	"github.com/urfave/cli"
)

const kubectlHelpDescription = `Usage:

   nomw kubectl [options] -- [arguments...]

Description:
   Runs a kubectl matching the connected cluster's version, provisioning
   one into the local cache first if needed. All arguments after -- are
   passed to kubectl unchanged.

Example:

   $ nomw kubectl -- get pods --all-namespaces`

type KubectlConfig struct {
	Args []string `cli:"arg:*"`

	CacheRoot string `cli:"cache-root" normalize:"filepath"`
	Mirror    string `cli:"mirror"`

	// Global flags
	Debug     bool   `cli:"debug"`
	LogLevel  string `cli:"log-level"`
	LogFormat string `cli:"log-format"`
	NoColor   bool   `cli:"no-color"`
}

var KubectlCommand = cli.Command{
	Name:        "kubectl",
	Usage:       "Runs a version-matched kubectl against the connected cluster",
	Description: kubectlHelpDescription,
	Flags:       flatten(cacheFlags, globalFlags),
	Action: func(c *cli.Context) error {
		cfg := KubectlConfig{}
		loadConfig(c, &cfg)
		l := createLogger(&cfg)

		ctx := context.Background()

		w := kubeclient.NewWrapper(l, createProvisioner(l, &cfg))
		client, err := w.Setup(ctx)
		if err != nil {
			l.Fatal("Setup failed: %v", err)
		}

		err = client.RunTool(ctx, l, os.Stdin, os.Stdout, os.Stderr, cfg.Args...)
		exitErr := new(process.ExitError)
		switch {
		case err == nil:
			return nil
		case errors.As(err, &exitErr):
			os.Exit(exitErr.Code)
		default:
			l.Fatal("%v", err)
		}
		return nil
	},
}
