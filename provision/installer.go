package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/karellen/nomw/logger"
	"github.com/karellen/nomw/process"
)

// DefaultMirror is the Kubernetes release download host.
const DefaultMirror = "https://dl.k8s.io"

// KubectlInstaller fetches an official kubectl release binary: the major
// version is fixed and the minor/patch float, resolved through the
// release channel pin (stable-1.<major>.txt). Both steps run as external
// processes under the supervisor, with their output routed to the logger
// and stdin disconnected.
type KubectlInstaller struct {
	Logger logger.Logger

	// Mirror overrides DefaultMirror.
	Mirror string

	// Curl overrides the downloader command, "curl".
	Curl string
}

func (i *KubectlInstaller) Install(ctx context.Context, major int, dir string) error {
	pin, err := i.resolvePin(ctx, major)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/release/%s/bin/%s/%s/%s", i.mirror(), pin, runtime.GOOS, runtime.GOARCH, ToolName())
	dest := filepath.Join(dir, ToolName())

	i.Logger.Info("Downloading %s to %s", url, dest)
	p := process.New(i.Logger, process.Config{
		Path:   i.curl(),
		Args:   []string{"-fSL", "--retry", "3", "-o", dest, url},
		Stdout: process.LineHandlerFunc(func(line string) { i.Logger.Info("%s", line) }),
		Stderr: process.LineHandlerFunc(func(line string) { i.Logger.Warn("%s", line) }),
	})
	if err := p.Run(ctx); err != nil {
		return err
	}

	return os.Chmod(dest, 0o755)
}

// resolvePin reads the release channel file for the major version,
// yielding the newest released patch, e.g. "v1.30.14".
func (i *KubectlInstaller) resolvePin(ctx context.Context, major int) (string, error) {
	url := fmt.Sprintf("%s/release/stable-1.%d.txt", i.mirror(), major)

	out := &process.Buffer{}
	p := process.New(i.Logger, process.Config{
		Path:   i.curl(),
		Args:   []string{"-fsSL", url},
		Stdout: out,
		Stderr: process.LineHandlerFunc(func(line string) { i.Logger.Warn("%s", line) }),
	})
	if err := p.Run(ctx); err != nil {
		return "", err
	}

	pin := strings.TrimSpace(out.String())
	if !strings.HasPrefix(pin, "v") {
		return "", fmt.Errorf("unexpected release channel pin %q from %s", pin, url)
	}

	i.Logger.Debug("Release channel stable-1.%d resolves to %s", major, pin)
	return pin, nil
}

func (i *KubectlInstaller) mirror() string {
	if i.Mirror != "" {
		return i.Mirror
	}
	return DefaultMirror
}

func (i *KubectlInstaller) curl() string {
	if i.Curl != "" {
		return i.Curl
	}
	return "curl"
}
