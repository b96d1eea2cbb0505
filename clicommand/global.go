package clicommand

import (
	"fmt"
	"os"

	"github.com/karellen/nomw/cliconfig"
	"github.com/karellen/nomw/logger"
	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
)

var DebugFlag = cli.BoolFlag{
	Name:   "debug",
	Usage:  "Enable debug logging",
	EnvVar: "NOMW_DEBUG",
}

var LogLevelFlag = cli.StringFlag{
	Name:   "log-level",
	Value:  "notice",
	Usage:  "Set the log level, either debug, info, notice, warn, error or fatal",
	EnvVar: "NOMW_LOG_LEVEL",
}

var LogFormatFlag = cli.StringFlag{
	Name:   "log-format",
	Value:  "text",
	Usage:  "The format to use for the logger output, either text or json",
	EnvVar: "NOMW_LOG_FORMAT",
}

var NoColorFlag = cli.BoolFlag{
	Name:   "no-color",
	Usage:  "Don't show colors in logging",
	EnvVar: "NOMW_NO_COLOR",
}

var CacheRootFlag = cli.StringFlag{
	Name:   "cache-root",
	Usage:  "Override the directory that provisioned tools are cached under",
	EnvVar: "NOMW_CACHE_ROOT",
}

var MirrorFlag = cli.StringFlag{
	Name:   "mirror",
	Usage:  "Override the release mirror that tools are downloaded from",
	EnvVar: "NOMW_MIRROR",
}

var globalFlags = []cli.Flag{
	NoColorFlag,
	DebugFlag,
	LogLevelFlag,
	LogFormatFlag,
}

var cacheFlags = []cli.Flag{
	CacheRootFlag,
	MirrorFlag,
}

func flatten(flagSets ...[]cli.Flag) []cli.Flag {
	flat := []cli.Flag{}
	for _, flagSet := range flagSets {
		flat = append(flat, flagSet...)
	}
	return flat
}

// loadConfig populates cfg from the cli context, exiting on bad input the
// way help output does.
func loadConfig(c *cli.Context, cfg any) {
	if err := cliconfig.Load(c, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		os.Exit(1)
	}
}

// createLogger builds a logger from whichever global config fields cfg
// carries. Fields are looked up by name so each command config struct only
// declares the flags it actually surfaces.
func createLogger(cfg any) logger.Logger {
	var l logger.Logger

	format, _ := reflections.GetField(cfg, "LogFormat")
	switch format {
	case "json":
		l = logger.NewJSONLogger(os.Stderr)
	default:
		text := logger.NewTextLogger()
		if noColor, err := reflections.GetField(cfg, "NoColor"); err == nil && noColor == true {
			text.Colors = false
		}
		l = text
	}

	if levelStr, err := reflections.GetField(cfg, "LogLevel"); err == nil {
		if s, ok := levelStr.(string); ok && s != "" {
			level, err := logger.ParseLevel(s)
			if err != nil {
				l.Fatal("%v", err)
			}
			l.SetLevel(level)
		}
	}

	if debug, err := reflections.GetField(cfg, "Debug"); err == nil && debug == true {
		l.SetLevel(logger.DEBUG)
	}

	return l
}
