// Package kubeclient connects to a Kubernetes cluster and keeps the client
// tooling's version in step with the server's.
package kubeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/buildkite/roko"
	"github.com/karellen/nomw/logger"
	"github.com/karellen/nomw/process"
	"github.com/karellen/nomw/provision"
	"github.com/karellen/nomw/version"
	apiversion "k8s.io/apimachinery/pkg/version"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// Client is a ready-to-use handle onto one cluster: the negotiated API
// clientset plus the matching provisioned kubectl. Handles are immutable;
// Wrapper.Setup returns a fresh one each call rather than mutating shared
// state, so concurrent callers can hold handles to differently-versioned
// clusters at the same time.
type Client struct {
	Clientset        *kubernetes.Clientset
	RESTConfig       *rest.Config
	Host             string
	ServerVersion    Version
	ServerGitVersion string
	ToolPath         string
	ToolVersion      Version
}

// RunTool runs the provisioned kubectl with the given arguments, wiring the
// given streams through; subcommands reading stdin (such as `apply -f -`)
// work when a reader is passed. The child inherits the parent environment,
// so kubeconfig resolution inside the tool matches LoadConfig's.
func (c *Client) RunTool(ctx context.Context, l logger.Logger, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	return process.New(l, process.Config{
		Path:   c.ToolPath,
		Args:   args,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}).Run(ctx)
}

// Wrapper negotiates cluster client versions. It discovers the server
// version, provisions a kubectl whose release line matches it, and hands
// back a Client bound to both.
type Wrapper struct {
	logger      logger.Logger
	provisioner *provision.Provisioner

	loadConfig  func() (*rest.Config, error)
	toolVersion func(ctx context.Context, toolPath string) (Version, error)

	// Server version seen earlier in this run, keyed by host. Skips the
	// discovery query on repeat Setup calls; nothing persists across runs.
	mu   sync.Mutex
	seen map[string]serverInfo
}

type serverInfo struct {
	version    Version
	gitVersion string
}

// WrapperOpt configures a Wrapper.
type WrapperOpt func(*Wrapper)

// WithLoadConfig overrides how cluster connection details are resolved.
func WithLoadConfig(f func() (*rest.Config, error)) WrapperOpt {
	return func(w *Wrapper) { w.loadConfig = f }
}

// WithToolVersionQuery overrides how a provisioned tool reports its version.
func WithToolVersionQuery(f func(ctx context.Context, toolPath string) (Version, error)) WrapperOpt {
	return func(w *Wrapper) { w.toolVersion = f }
}

func NewWrapper(l logger.Logger, p *provision.Provisioner, opts ...WrapperOpt) *Wrapper {
	w := &Wrapper{
		logger:      l,
		provisioner: p,
		loadConfig:  LoadConfig,
	}
	w.toolVersion = func(ctx context.Context, toolPath string) (Version, error) {
		return queryToolVersion(ctx, w.logger, toolPath)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Setup connects to the cluster, negotiates versions and returns a Client.
//
// The kubectl and client-go release lines advance with the server's minor
// release, so the server minor picks which cache entry to provision. A
// mismatch between the provisioned tool and the server is logged as a
// warning rather than failing setup: skew of one minor either way is
// supported by upstream, and a stale channel pin should not take the
// engine down.
func (w *Wrapper) Setup(ctx context.Context) (*Client, error) {
	cfg, err := w.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating clientset for %s: %w", cfg.Host, err)
	}

	serverVersion, serverGitVersion, err := w.serverVersion(ctx, cfg.Host, clientset)
	if err != nil {
		return nil, err
	}

	dir, err := w.provisioner.Ensure(ctx, serverVersion.Minor)
	if err != nil {
		return nil, err
	}
	toolPath := filepath.Join(dir, provision.ToolName())

	toolVersion, err := w.toolVersion(ctx, toolPath)
	if err != nil {
		return nil, fmt.Errorf("querying version of %s: %w", toolPath, err)
	}
	if toolVersion.Minor != serverVersion.Minor {
		w.logger.Warn("Tool %s is release %s but the server is %s", toolPath, toolVersion, serverVersion)
	} else {
		w.logger.Debug("Tool %s release %s matches server %s", toolPath, toolVersion, serverVersion)
	}

	return &Client{
		Clientset:        clientset,
		RESTConfig:       cfg,
		Host:             cfg.Host,
		ServerVersion:    serverVersion,
		ServerGitVersion: serverGitVersion,
		ToolPath:         toolPath,
		ToolVersion:      toolVersion,
	}, nil
}

// serverVersion queries the cluster's version, retrying transient failures.
// A version already seen for this host in this run is reused without a
// query; connectivity will be exercised by whatever the caller does with
// the handle. Nothing is cached across process restarts.
func (w *Wrapper) serverVersion(ctx context.Context, host string, clientset *kubernetes.Clientset) (Version, string, error) {
	w.mu.Lock()
	cached, ok := w.seen[host]
	w.mu.Unlock()
	if ok {
		w.logger.Debug("Reusing server version %s for %s", cached.version, host)
		return cached.version, cached.gitVersion, nil
	}

	r := roko.NewRetrier(
		roko.WithMaxAttempts(5),
		roko.WithStrategy(roko.Exponential(1*time.Second, 0)),
	)
	info, err := roko.DoFunc(ctx, r, func(r *roko.Retrier) (*apiversion.Info, error) {
		info, err := clientset.Discovery().ServerVersion()
		if err != nil {
			w.logger.Warn("Server version query failed: %v (%s)", err, r)
			return nil, err
		}
		return info, nil
	})
	if err != nil {
		return Version{}, "", fmt.Errorf("querying server version of %s: %w", host, err)
	}

	version, err := ParseGitVersion(info.GitVersion)
	if err != nil {
		return Version{}, "", err
	}
	w.logger.Info("Cluster %s reports server version %s (%s)", host, version, info.GitVersion)

	w.mu.Lock()
	if w.seen == nil {
		w.seen = map[string]serverInfo{}
	}
	w.seen[host] = serverInfo{version: version, gitVersion: info.GitVersion}
	w.mu.Unlock()

	return version, info.GitVersion, nil
}

// toolVersionReport is the shape of `kubectl version --client -o json`.
type toolVersionReport struct {
	ClientVersion struct {
		GitVersion string `json:"gitVersion"`
	} `json:"clientVersion"`
}

func queryToolVersion(ctx context.Context, l logger.Logger, toolPath string) (Version, error) {
	out := &process.Buffer{}
	err := process.New(l, process.Config{
		Path:   toolPath,
		Args:   []string{"version", "--client", "-o", "json"},
		Stdout: out,
	}).Run(ctx)
	if err != nil {
		return Version{}, err
	}

	var report toolVersionReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		return Version{}, fmt.Errorf("parsing version report: %w", err)
	}
	return ParseGitVersion(report.ClientVersion.GitVersion)
}
