package kubeclient

import (
	"fmt"
	"strings"

	utilversion "k8s.io/apimachinery/pkg/util/version"
)

// Version is a parsed Kubernetes component version. Major here follows the
// kubectl and client-go release scheme, where the component's major release
// number tracks the server's minor release (a 1.30 cluster pairs with
// v0.30.x client libraries and a v1.30.x kubectl).
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// VersionParseError reports a git version string that could not be parsed.
type VersionParseError struct {
	GitVersion string
	Err        error
}

func (e *VersionParseError) Error() string {
	return fmt.Sprintf("parsing version %q: %v", e.GitVersion, e.Err)
}

func (e *VersionParseError) Unwrap() error { return e.Err }

// ParseGitVersion parses a gitVersion string as reported by the /version
// endpoint or by kubectl. Managed offerings append a vendor suffix after a
// dash (EKS reports e.g. "v1.29.4-eks-036c24b"); everything from the first
// dash on is discarded before parsing.
func ParseGitVersion(gitVersion string) (Version, error) {
	trimmed := gitVersion
	if idx := strings.IndexByte(trimmed, '-'); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	parsed, err := utilversion.ParseGeneric(trimmed)
	if err != nil {
		return Version{}, &VersionParseError{GitVersion: gitVersion, Err: err}
	}

	return Version{
		Major: int(parsed.Major()),
		Minor: int(parsed.Minor()),
		Patch: int(parsed.Patch()),
	}, nil
}
