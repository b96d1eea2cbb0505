package kubeclient_test

import (
	"errors"
	"testing"

	"github.com/karellen/nomw/kubeclient"
)

func TestParseGitVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		gitVersion string
		want       kubeclient.Version
	}{
		{gitVersion: "v1.30.2", want: kubeclient.Version{Major: 1, Minor: 30, Patch: 2}},
		{gitVersion: "1.27.0", want: kubeclient.Version{Major: 1, Minor: 27}},
		{gitVersion: "v1.29.4-eks-036c24b", want: kubeclient.Version{Major: 1, Minor: 29, Patch: 4}},
		{gitVersion: "v1.28.9-gke.1000", want: kubeclient.Version{Major: 1, Minor: 28, Patch: 9}},
		{gitVersion: "v1.31.0-alpha.2", want: kubeclient.Version{Major: 1, Minor: 31}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.gitVersion, func(t *testing.T) {
			t.Parallel()
			got, err := kubeclient.ParseGitVersion(test.gitVersion)
			if err != nil {
				t.Fatalf("ParseGitVersion(%q) error = %v", test.gitVersion, err)
			}
			if got != test.want {
				t.Errorf("ParseGitVersion(%q) = %v, want %v", test.gitVersion, got, test.want)
			}
		})
	}
}

func TestParseGitVersionRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, gitVersion := range []string{"", "latest", "-eks-036c24b", "v1..2"} {
		_, err := kubeclient.ParseGitVersion(gitVersion)
		parseErr := new(kubeclient.VersionParseError)
		if !errors.As(err, &parseErr) {
			t.Errorf("ParseGitVersion(%q) error = %v, want *VersionParseError", gitVersion, err)
			continue
		}
		if parseErr.GitVersion != gitVersion {
			t.Errorf("parseErr.GitVersion = %q, want %q", parseErr.GitVersion, gitVersion)
		}
	}
}

func TestVersionString(t *testing.T) {
	t.Parallel()

	v := kubeclient.Version{Major: 1, Minor: 30, Patch: 2}
	if got, want := v.String(), "1.30.2"; got != want {
		t.Errorf("v.String() = %q, want %q", got, want)
	}
}
