package kubeclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/karellen/nomw/kubeclient"
	"github.com/karellen/nomw/logger"
	"github.com/karellen/nomw/process"
	"github.com/karellen/nomw/provision"
	"github.com/karellen/nomw/version"
	apiversion "k8s.io/apimachinery/pkg/version"
	"k8s.io/client-go/rest"
)

func fakeAPIServer(t *testing.T, info apiversion.Info) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/version" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(info); err != nil {
			t.Errorf("encoding version info: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// scriptInstaller drops a stub kubectl that reports the given version.
type scriptInstaller struct {
	gitVersion string
	calls      int
}

func (s *scriptInstaller) Install(ctx context.Context, major int, dir string) error {
	s.calls++
	script := "#!/bin/sh\necho '{\"clientVersion\": {\"gitVersion\": \"" + s.gitVersion + "\"}}'\n"
	return os.WriteFile(filepath.Join(dir, provision.ToolName()), []byte(script), 0o755)
}

func TestSetupNegotiatesServerAndToolVersions(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("stub kubectl is a shell script")
	}
	ctx := context.Background()

	srv := fakeAPIServer(t, apiversion.Info{Major: "1", Minor: "30", GitVersion: "v1.30.2"})
	installer := &scriptInstaller{gitVersion: "v1.30.4"}

	p, err := provision.New(logger.Discard, provision.WithRoot(t.TempDir()), provision.WithInstaller(installer))
	if err != nil {
		t.Fatalf("provision.New() error = %v", err)
	}

	w := kubeclient.NewWrapper(logger.Discard, p, kubeclient.WithLoadConfig(func() (*rest.Config, error) {
		return &rest.Config{Host: srv.URL}, nil
	}))

	client, err := w.Setup(ctx)
	if err != nil {
		t.Fatalf("w.Setup() error = %v", err)
	}

	if got, want := client.ServerVersion, (kubeclient.Version{Major: 1, Minor: 30, Patch: 2}); got != want {
		t.Errorf("client.ServerVersion = %v, want %v", got, want)
	}
	if got, want := client.ServerGitVersion, "v1.30.2"; got != want {
		t.Errorf("client.ServerGitVersion = %q, want %q", got, want)
	}
	if got, want := client.ToolVersion, (kubeclient.Version{Major: 1, Minor: 30, Patch: 4}); got != want {
		t.Errorf("client.ToolVersion = %v, want %v", got, want)
	}
	if got, want := filepath.Base(filepath.Dir(client.ToolPath)), "30"; got != want {
		t.Errorf("client.ToolPath = %q, want it under cache entry %q", client.ToolPath, want)
	}
	if got, want := client.Host, srv.URL; got != want {
		t.Errorf("client.Host = %q, want %q", got, want)
	}

	// A second Setup returns a fresh handle but hits the cache.
	again, err := w.Setup(ctx)
	if err != nil {
		t.Fatalf("w.Setup() second call error = %v", err)
	}
	if again == client {
		t.Error("w.Setup() returned the same handle twice, want a fresh one per call")
	}
	if got, want := installer.calls, 1; got != want {
		t.Errorf("installer calls = %d, want %d", got, want)
	}
}

func TestSetupWarnsOnVersionSkew(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("stub kubectl is a shell script")
	}
	ctx := context.Background()

	srv := fakeAPIServer(t, apiversion.Info{Major: "1", Minor: "31", GitVersion: "v1.31.1-eks-abc123"})
	installer := &scriptInstaller{gitVersion: "v1.30.0"}

	p, err := provision.New(logger.Discard, provision.WithRoot(t.TempDir()), provision.WithInstaller(installer))
	if err != nil {
		t.Fatalf("provision.New() error = %v", err)
	}

	log := logger.NewBuffer()
	w := kubeclient.NewWrapper(log, p, kubeclient.WithLoadConfig(func() (*rest.Config, error) {
		return &rest.Config{Host: srv.URL}, nil
	}))

	client, err := w.Setup(ctx)
	if err != nil {
		t.Fatalf("w.Setup() error = %v", err)
	}
	if got, want := client.ServerVersion, (kubeclient.Version{Major: 1, Minor: 31, Patch: 1}); got != want {
		t.Errorf("client.ServerVersion = %v, want %v (vendor suffix must be stripped)", got, want)
	}

	var warned bool
	for _, line := range log.Messages {
		if strings.HasPrefix(line, "[warn]") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("log.Messages = %q, want a skew warning", log.Messages)
	}
}

func TestRunToolPassesStdinThrough(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("stub kubectl is a shell script")
	}

	tool := filepath.Join(t.TempDir(), "kubectl")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\ncat\n"), 0o755); err != nil {
		t.Fatalf("os.WriteFile(%q) error = %v", tool, err)
	}

	client := &kubeclient.Client{ToolPath: tool}

	input := "apiVersion: v1\nkind: ConfigMap\n"
	out := &process.Buffer{}
	err := client.RunTool(context.Background(), logger.Discard, strings.NewReader(input), out, nil, "apply", "-f", "-")
	if err != nil {
		t.Fatalf("client.RunTool() error = %v", err)
	}

	if got := out.String(); got != input {
		t.Errorf("tool stdin round trip = %q, want %q", got, input)
	}
}

func TestSetupIdentifiesItselfToTheServer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var mu sync.Mutex
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		userAgent = r.Header.Get("User-Agent")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(apiversion.Info{Major: "1", Minor: "30", GitVersion: "v1.30.2"}) //nolint:errcheck // test server
	}))
	t.Cleanup(srv.Close)

	p, err := provision.New(logger.Discard, provision.WithRoot(t.TempDir()), provision.WithInstaller(&scriptInstaller{gitVersion: "unused"}))
	if err != nil {
		t.Fatalf("provision.New() error = %v", err)
	}

	w := kubeclient.NewWrapper(logger.Discard, p,
		kubeclient.WithLoadConfig(func() (*rest.Config, error) {
			return &rest.Config{Host: srv.URL}, nil
		}),
		kubeclient.WithToolVersionQuery(func(ctx context.Context, toolPath string) (kubeclient.Version, error) {
			return kubeclient.Version{Major: 1, Minor: 30}, nil
		}),
	)

	if _, err := w.Setup(ctx); err != nil {
		t.Fatalf("w.Setup() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if want := "nomw/" + version.Version(); !strings.HasPrefix(userAgent, want) {
		t.Errorf("User-Agent = %q, want prefix %q", userAgent, want)
	}
}

func TestSetupToolVersionQuerySeam(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := fakeAPIServer(t, apiversion.Info{Major: "1", Minor: "29", GitVersion: "v1.29.7"})

	installer := &scriptInstaller{gitVersion: "unused"}
	p, err := provision.New(logger.Discard, provision.WithRoot(t.TempDir()), provision.WithInstaller(installer))
	if err != nil {
		t.Fatalf("provision.New() error = %v", err)
	}

	var queried string
	w := kubeclient.NewWrapper(logger.Discard, p,
		kubeclient.WithLoadConfig(func() (*rest.Config, error) {
			return &rest.Config{Host: srv.URL}, nil
		}),
		kubeclient.WithToolVersionQuery(func(ctx context.Context, toolPath string) (kubeclient.Version, error) {
			queried = toolPath
			return kubeclient.Version{Major: 1, Minor: 29, Patch: 7}, nil
		}),
	)

	client, err := w.Setup(ctx)
	if err != nil {
		t.Fatalf("w.Setup() error = %v", err)
	}
	if queried != client.ToolPath {
		t.Errorf("version query path = %q, want %q", queried, client.ToolPath)
	}
}
