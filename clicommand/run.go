package clicommand

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/karellen/nomw/process"
	"github.com/urfave/cli"
)

const runHelpDescription = `Usage:

   nomw run [options] -- <command> [arguments...]

Description:
   Runs a command under the stream supervisor with stdin, stdout and stderr
   connected to the calling terminal, and exits with the command's exit code.

   With --timeout, the command is sent --signal once the deadline passes,
   then killed after --signal-grace-period if it is still running.

Example:

   $ nomw run --timeout 30s -- kubectl get pods`

type RunConfig struct {
	Command string   `cli:"arg:0" validate:"required"`
	Args    []string `cli:"arg:*"`

	Timeout           time.Duration `cli:"timeout"`
	Signal            string        `cli:"signal"`
	SignalGracePeriod time.Duration `cli:"signal-grace-period"`

	// Global flags
	Debug     bool   `cli:"debug"`
	LogLevel  string `cli:"log-level"`
	LogFormat string `cli:"log-format"`
	NoColor   bool   `cli:"no-color"`
}

var RunCommand = cli.Command{
	Name:        "run",
	Usage:       "Runs a command under the stream supervisor",
	Description: runHelpDescription,
	Flags: flatten([]cli.Flag{
		cli.DurationFlag{
			Name:   "timeout",
			Usage:  "Time to allow the command to run for before signalling it, 0 for no limit",
			EnvVar: "NOMW_RUN_TIMEOUT",
		},
		cli.StringFlag{
			Name:   "signal",
			Value:  "SIGTERM",
			Usage:  "The signal to send the command when the timeout elapses",
			EnvVar: "NOMW_RUN_SIGNAL",
		},
		cli.DurationFlag{
			Name:   "signal-grace-period",
			Value:  9 * time.Second,
			Usage:  "Time to wait after signalling the command before killing it",
			EnvVar: "NOMW_RUN_SIGNAL_GRACE_PERIOD",
		},
	}, globalFlags),
	Action: func(c *cli.Context) error {
		cfg := RunConfig{}
		loadConfig(c, &cfg)
		l := createLogger(&cfg)

		sig, err := process.ParseSignal(cfg.Signal)
		if err != nil {
			l.Fatal("%v", err)
		}

		p := process.New(l, process.Config{
			Path:              cfg.Command,
			Args:              cfg.Args[1:],
			Stdin:             os.Stdin,
			Stdout:            os.Stdout,
			Stderr:            os.Stderr,
			InterruptSignal:   sig,
			SignalGracePeriod: cfg.SignalGracePeriod,
		})

		if err := p.Start(); err != nil {
			l.Fatal("Failed to start %s: %v", cfg.Command, err)
		}

		ctx := context.Background()
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}

		err = p.WaitResult(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			// Timing out the wait leaves the child running. Signal it,
			// then collect the final status without a deadline.
			l.Warn("Command did not finish within %v, sending %v", cfg.Timeout, sig)
			if err := p.Interrupt(); err != nil {
				l.Error("Failed to signal command: %v", err)
			}
			err = p.WaitResult(context.Background())
		}

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
