// Package provision maintains the on-disk cache of client artifacts, one
// directory per client major version, and fetches missing entries by
// running an external installer under the process supervisor.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"github.com/karellen/nomw/logger"
)

// Category is the cache subdirectory holding provisioned client binaries.
const Category = "kubectl"

// ToolName is the file name of the provisioned client binary inside a
// cache entry.
func ToolName() string {
	if runtime.GOOS == "windows" {
		return "kubectl.exe"
	}
	return "kubectl"
}

// Installer fetches the client artifact for one major version into dir.
// The default is KubectlInstaller.
type Installer interface {
	Install(ctx context.Context, major int, dir string) error
}

// Error reports a failed client artifact fetch. The cache entry the fetch
// was writing into is left behind, partially populated.
type Error struct {
	Major int
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provisioning client major version %d: %v", e.Major, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Provisioner is the explicit provisioning context: it owns the cache root
// and the installer, and carries no state anywhere else.
type Provisioner struct {
	logger    logger.Logger
	root      string
	installer Installer
}

type Opt func(*Provisioner)

// WithRoot overrides the cache root (default: <user cache dir>/nomw).
func WithRoot(root string) Opt { return func(p *Provisioner) { p.root = root } }

// WithInstaller overrides how missing cache entries are fetched.
func WithInstaller(i Installer) Opt { return func(p *Provisioner) { p.installer = i } }

func New(l logger.Logger, opts ...Opt) (*Provisioner, error) {
	p := &Provisioner{logger: l}
	for _, opt := range opts {
		opt(p)
	}

	if p.root == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("finding user cache dir: %w", err)
		}
		p.root = filepath.Join(base, "nomw")
	}
	if p.installer == nil {
		p.installer = &KubectlInstaller{Logger: l}
	}

	return p, nil
}

// Root returns the cache root directory.
func (p *Provisioner) Root() string { return p.root }

// Dir returns the cache entry directory for a client major version. The
// directory may not exist yet; Ensure creates it.
func (p *Provisioner) Dir(major int) string {
	return filepath.Join(p.root, Category, strconv.Itoa(major))
}

// Ensure returns the cache entry directory for the major version, fetching
// it first if absent. Existence of the directory is the only validity
// check: an entry left behind by an interrupted fetch is a hit. A
// cross-process file lock serializes concurrent fetches, but adds no
// validity metadata.
func (p *Provisioner) Ensure(ctx context.Context, major int) (string, error) {
	dir := p.Dir(major)
	if dirExists(dir) {
		p.logger.Debug("Client major version %d already cached at %s", major, dir)
		return dir, nil
	}

	if err := os.MkdirAll(filepath.Join(p.root, Category), 0o755); err != nil {
		return "", &Error{Major: major, Err: err}
	}

	lock := flock.New(filepath.Join(p.root, Category, ".lock"))
	locked, err := lock.TryLockContext(ctx, time.Second)
	if err != nil {
		return "", &Error{Major: major, Err: fmt.Errorf("acquiring cache lock: %w", err)}
	}
	if !locked {
		return "", &Error{Major: major, Err: errors.New("could not acquire cache lock")}
	}
	defer lock.Unlock() //nolint:errcheck // lock release on a temp file

	// Another process may have fetched while we waited for the lock.
	if dirExists(dir) {
		p.logger.Debug("Client major version %d cached concurrently at %s", major, dir)
		return dir, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &Error{Major: major, Err: err}
	}

	p.logger.Info("Fetching client ~=%d.0 into %s", major, dir)
	if err := p.installer.Install(ctx, major, dir); err != nil {
		return "", &Error{Major: major, Err: err}
	}

	return dir, nil
}

// Clear deletes the entire cache root recursively.
func (p *Provisioner) Clear() error {
	p.logger.Info("Clearing client cache at %s", p.root)
	return os.RemoveAll(p.root)
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
