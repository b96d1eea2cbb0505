package clicommand

import (
	"strings"
	"testing"

	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
)

type configCommandPair struct {
	Config  any
	Command cli.Command
}

var commandConfigPairs = []configCommandPair{
	{Config: SetupConfig{}, Command: SetupCommand},
	{Config: KubectlConfig{}, Command: KubectlCommand},
	{Config: RunConfig{}, Command: RunCommand},
	{Config: CacheWarmConfig{}, Command: CacheWarmCommand},
	{Config: CacheClearConfig{}, Command: CacheClearCommand},
}

func TestAllCommandConfigStructsHaveCorrespondingCLIFlags(t *testing.T) {
	t.Parallel()

	for _, pair := range commandConfigPairs {
		flagNames := make(map[string]struct{}, len(pair.Command.Flags))
		for _, flag := range pair.Command.Flags {
			flagNames[flag.GetName()] = struct{}{}
		}

		fields, err := reflections.Fields(pair.Config)
		if err != nil {
			t.Fatalf("getting fields for type %T: %v", pair.Config, err)
		}

		for _, field := range fields {
			cliName, err := reflections.GetFieldTag(pair.Config, field, "cli")
			if err != nil {
				t.Fatalf("getting cli tag for field %s of %T: %v", field, pair.Config, err)
			}

			if cliName == "" || strings.HasPrefix(cliName, "arg:") {
				continue
			}

			if _, ok := flagNames[cliName]; !ok {
				t.Errorf("config struct %T has field %s with cli tag %q, but command %q has no such flag", pair.Config, field, cliName, pair.Command.Name)
			}
		}
	}
}
