package clicommand

import (
	"context"
	"fmt"

	"github.com/karellen/nomw/kubeclient"
	"github.com/urfave/cli"
)

const setupHelpDescription = `Usage:

   nomw setup [options]

Description:
   Connects to the cluster, reads the server version and makes sure a
   matching kubectl is present in the local cache, downloading one if
   needed. Prints the negotiated versions on success.

   Connection details come from the in-cluster service account when running
   inside a pod, or from the usual kubeconfig locations otherwise.

Example:

   $ nomw setup
   server    v1.30.2 (v1.30.2-eks-036c24b)
   kubectl   1.30.14 (/home/user/.cache/nomw/kubectl/30/kubectl)`

type SetupConfig struct {
	CacheRoot string `cli:"cache-root" normalize:"filepath"`
	Mirror    string `cli:"mirror"`

	// Global flags
	Debug     bool   `cli:"debug"`
	LogLevel  string `cli:"log-level"`
	LogFormat string `cli:"log-format"`
	NoColor   bool   `cli:"no-color"`
}

var SetupCommand = cli.Command{
	Name:        "setup",
	Usage:       "Negotiates cluster client versions and provisions a matching kubectl",
	Description: setupHelpDescription,
	Flags:       flatten(cacheFlags, globalFlags),
	Action: func(c *cli.Context) error {
		cfg := SetupConfig{}
		loadConfig(c, &cfg)
		l := createLogger(&cfg)

		w := kubeclient.NewWrapper(l, createProvisioner(l, &cfg))
		client, err := w.Setup(context.Background())
		if err != nil {
			l.Fatal("Setup failed: %v", err)
		}

		fmt.Fprintf(c.App.Writer, "server    %s (%s)\n", client.ServerVersion, client.ServerGitVersion)
		fmt.Fprintf(c.App.Writer, "kubectl   %s (%s)\n", client.ToolVersion, client.ToolPath)
		return nil
	},
}
