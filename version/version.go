// Package version provides the nomw version strings.
package version

import (
	_ "embed"
	"runtime"
	"strings"
)

// buildVersion can be overridden at compile time:
//
//	go build -ldflags "-X github.com/karellen/nomw/version.buildVersion=abc" ./cmd/nomw

//go:embed VERSION
var baseVersion string
var buildVersion string

func Version() string {
	return strings.TrimSpace(baseVersion)
}

func BuildVersion() string {
	if buildVersion == "" {
		return "x"
	}
	return buildVersion
}

func UserAgent() string {
	return "nomw/" + Version() + "." + BuildVersion() + " (" + runtime.GOOS + "; " + runtime.GOARCH + ")"
}
