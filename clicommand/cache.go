package clicommand

import (
	"github.com/karellen/nomw/logger"
	"github.com/karellen/nomw/provision"
	"github.com/oleiade/reflections"
)

// createProvisioner builds a cache provisioner honoring whichever of the
// cache-root and mirror flags cfg carries.
func createProvisioner(l logger.Logger, cfg any) *provision.Provisioner {
	opts := []provision.Opt{}

	if root, err := reflections.GetField(cfg, "CacheRoot"); err == nil {
		if s, ok := root.(string); ok && s != "" {
			opts = append(opts, provision.WithRoot(s))
		}
	}
	if mirror, err := reflections.GetField(cfg, "Mirror"); err == nil {
		if s, ok := mirror.(string); ok && s != "" {
			opts = append(opts, provision.WithInstaller(&provision.KubectlInstaller{Logger: l, Mirror: s}))
		}
	}

	p, err := provision.New(l, opts...)
	if err != nil {
		l.Fatal("Failed to set up the tool cache: %v", err)
	}
	return p
}
