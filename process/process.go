// Package process provides a supervisor for external commands.
//
// Each of the child's three standard streams independently resolves to a
// stream target: nil (not connected), an *os.File (inherited by the child
// directly), a LineHandler (output delivered line by line), or any other
// io.Writer / io.Reader (raw chunks). Piped targets are driven by pump
// goroutines so that a child interleaving reads and writes can never
// deadlock on a full pipe buffer.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/karellen/nomw/logger"
)

// readChunkSize is the unit of transfer for raw (non line-mode) pumps.
const readChunkSize = 16384

// Config defines how to spawn a child process and where its streams go.
type Config struct {
	// Path is the command to run, and Args its argument vector.
	Path string
	Args []string

	// DisplayArgs, if set, replaces Args whenever the command is formatted
	// for humans (logs, ExitError). Use it when Args carries values that
	// should not be shown.
	DisplayArgs []string

	// Env is merged over the supervisor's own environment.
	Env []string

	// Dir is the working directory for the child.
	Dir string

	// Stdin is copied into the child by a dedicated pump, which closes the
	// pipe when the reader is exhausted. An *os.File is handed to the child
	// as-is. nil leaves stdin unconnected.
	Stdin io.Reader

	// Stdout and Stderr receive the child's output. A LineHandler gets one
	// call per line, in arrival order; any other io.Writer gets raw chunks.
	// An *os.File is handed to the child as-is; nil discards the stream.
	Stdout io.Writer
	Stderr io.Writer

	// PTY runs the child under a pseudo-terminal. Stdout receives the
	// combined output; Stderr is not used.
	PTY bool

	// InterruptSignal is sent by Interrupt. Defaults to SIGTERM.
	InterruptSignal Signal

	// SignalGracePeriod is how long Interrupt waits before escalating to
	// SIGKILL. Zero means never escalate.
	SignalGracePeriod time.Duration
}

// Process is a running (or runnable) child process and its stream pumps.
type Process struct {
	logger logger.Logger
	conf   Config

	command *exec.Cmd
	pid     int

	mu            sync.Mutex
	started, done chan struct{}

	pumps      sync.WaitGroup
	pumpStarts []func()
	childFds   []io.Closer
	pty        *os.File
	capture    *Buffer

	exitCode int
	waitErr  error
}

// New returns a Process for the given config. Nothing runs until Start.
func New(l logger.Logger, c Config) *Process {
	return &Process{
		logger:   l,
		conf:     c,
		exitCode: -1,
	}
}

// Start spawns the child and attaches a pump for every piped stream. It
// does not wait: use Wait, WaitResult or Run for that.
func (p *Process) Start() error {
	if p.conf.Path == "" {
		return errors.New("process: no command path configured")
	}

	p.mu.Lock()
	if p.command != nil {
		p.mu.Unlock()
		return errors.New("process: already started")
	}
	p.command = exec.Command(p.conf.Path, p.conf.Args...)
	p.mu.Unlock()

	p.command.Dir = p.conf.Dir

	// Copy the current environment and merge in the configured one, so the
	// child gets PATH and friends while the config takes precedence.
	p.command.Env = append(os.Environ(), p.conf.Env...)

	if b, ok := p.conf.Stdout.(*Buffer); ok {
		p.capture = b
	}

	if p.conf.PTY {
		if err := p.startPTY(); err != nil {
			return err
		}
	} else {
		p.setupProcessGroup()

		if err := p.wireStdin(); err != nil {
			p.closeFds()
			return err
		}
		if err := p.wireOutput(p.conf.Stdout, &p.command.Stdout, "stdout"); err != nil {
			p.closeFds()
			return err
		}
		if err := p.wireOutput(p.conf.Stderr, &p.command.Stderr, "stderr"); err != nil {
			p.closeFds()
			return err
		}

		if err := p.command.Start(); err != nil {
			p.closeFds()
			return err
		}

		// The child owns its copies now; release ours so the pumps see EOF
		// when the child exits.
		for _, fd := range p.childFds {
			fd.Close() //nolint:errcheck // release of duplicated pipe ends
		}
		p.childFds = nil
	}

	p.pid = p.command.Process.Pid
	p.logger.Debug("[Process] Running %s with PID %d", FormatCommand(p.conf.Path, p.displayArgs()), p.pid)

	close(p.startedCh())

	for _, start := range p.pumpStarts {
		start()
	}
	p.pumpStarts = nil

	go p.reap()

	return nil
}

// Run starts the child and blocks until it finishes, returning an
// *ExitError if it exits nonzero.
func (p *Process) Run(ctx context.Context) error {
	if err := p.Start(); err != nil {
		return err
	}
	return p.WaitResult(ctx)
}

// Wait blocks until the child has exited and every pump has drained, then
// returns the exit code. If ctx expires first, Wait returns ctx.Err() and
// the child keeps running: callers wanting "timeout implies kill" must
// compose Wait with Interrupt or Terminate themselves, and may call Wait
// again afterwards to collect the exit code.
func (p *Process) Wait(ctx context.Context) (int, error) {
	select {
	case <-p.Done():
	case <-ctx.Done():
		return -1, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, p.waitErr
}

// WaitResult is Wait, but a nonzero exit is reported as an *ExitError
// carrying the exit code, the displayable command line, and the output
// captured so far when the stdout target is a *Buffer.
func (p *Process) WaitResult(ctx context.Context) error {
	code, err := p.Wait(ctx)
	if err != nil {
		return err
	}
	if code == 0 {
		return nil
	}

	exitErr := &ExitError{
		Code:    code,
		Command: FormatCommand(p.conf.Path, p.displayArgs()),
	}
	if p.capture != nil {
		exitErr.Output = p.capture.Bytes()
	}
	return exitErr
}

// Pid returns the child's process ID, or 0 before Start.
func (p *Process) Pid() int { return p.pid }

// Started returns a channel that is closed once the child is running.
func (p *Process) Started() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started == nil {
		p.started = make(chan struct{})
	}
	return p.started
}

// Done returns a channel that is closed once the child has exited and all
// pumps have finished.
func (p *Process) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		p.done = make(chan struct{})
	}
	return p.done
}

// Interrupt sends the configured interrupt signal to the child's process
// group. It does not block and does not touch the pumps: they observe pipe
// closure and finish on their own. If SignalGracePeriod is set, the child
// is killed after it elapses without the child exiting.
func (p *Process) Interrupt() error {
	p.mu.Lock()
	running := p.command != nil && p.command.Process != nil
	p.mu.Unlock()
	if !running {
		return errors.New("process: not started")
	}

	if err := p.interruptProcessGroup(); err != nil {
		p.logger.Error("[Process] Failed to interrupt PID %d: %v", p.pid, err)
		return err
	}

	if grace := p.conf.SignalGracePeriod; grace > 0 {
		go func() {
			select {
			case <-p.Done():
			case <-time.After(grace):
				p.logger.Debug("[Process] PID %d didn't exit within %v, killing", p.pid, grace)
				p.Terminate() //nolint:errcheck // best-effort escalation
			}
		}()
	}

	return nil
}

// Terminate forcefully kills the child's process group. It does not block
// and does not touch the pumps.
func (p *Process) Terminate() error {
	p.mu.Lock()
	running := p.command != nil && p.command.Process != nil
	p.mu.Unlock()
	if !running {
		return errors.New("process: not started")
	}

	if err := p.terminateProcessGroup(); err != nil {
		p.logger.Error("[Process] Failed to terminate PID %d: %v", p.pid, err)
		return err
	}
	return nil
}

func (p *Process) startedCh() chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started == nil {
		p.started = make(chan struct{})
	}
	return p.started
}

func (p *Process) doneCh() chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		p.done = make(chan struct{})
	}
	return p.done
}

// reap waits for the child, then for every pump, and only then signals
// Done. Trailing output written just before exit is never lost.
func (p *Process) reap() {
	waitErr := p.command.Wait()

	if p.pty != nil {
		// Unblocks the output pump on platforms where the pty read does
		// not return on child exit.
		p.pty.Close() //nolint:errcheck // pty teardown
	}

	p.pumps.Wait()

	p.mu.Lock()
	p.exitCode = exitStatus(waitErr)
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		p.waitErr = waitErr
	}
	p.mu.Unlock()

	p.logger.Debug("[Process] PID %d finished with exit status %d", p.pid, p.exitCode)

	close(p.doneCh())
}

// wireStdin connects the configured stdin target to the child.
func (p *Process) wireStdin() error {
	switch src := p.conf.Stdin.(type) {
	case nil:
		return nil

	case *os.File:
		p.command.Stdin = src
		return nil

	default:
		pr, pw, err := os.Pipe()
		if err != nil {
			return err
		}
		p.command.Stdin = pr
		p.childFds = append(p.childFds, pr)
		p.addPump("stdin", func() {
			defer pw.Close() //nolint:errcheck // EOF signal to the child
			if _, err := io.Copy(pw, src); err != nil && !errors.Is(err, syscall.EPIPE) {
				p.logger.Error("[Process] stdin pump: %v", err)
			}
		})
		return nil
	}
}

// wireOutput connects one output stream target to the child.
func (p *Process) wireOutput(target io.Writer, stream *io.Writer, name string) error {
	switch sink := target.(type) {
	case nil:
		return nil

	case *os.File:
		*stream = sink
		return nil

	default:
		pr, pw, err := os.Pipe()
		if err != nil {
			return err
		}
		*stream = pw
		p.childFds = append(p.childFds, pw)
		p.addPump(name, func() {
			defer pr.Close() //nolint:errcheck // pump owns the read end
			p.pump(name, pr, sink)
		})
		return nil
	}
}

// pump moves data from a pipe to a sink, one unit at a time, until the
// pipe closes. LineHandler sinks get whole lines; everything else gets
// chunks of at most readChunkSize bytes.
func (p *Process) pump(name string, r io.Reader, sink io.Writer) {
	if lh, ok := sink.(LineHandler); ok {
		if err := NewScanner(p.logger).ScanLines(r, lh.HandleLine); err != nil {
			p.logger.Error("[Process] %s line pump: %v", name, err)
		}
		return
	}

	buf := make([]byte, readChunkSize)
	if _, err := io.CopyBuffer(onlyWriter{sink}, onlyReader{r}, buf); err != nil {
		p.logger.Error("[Process] %s pump: %v", name, err)
	}
}

func (p *Process) addPump(name string, fn func()) {
	p.pumps.Add(1)
	p.pumpStarts = append(p.pumpStarts, func() {
		go func() {
			defer p.pumps.Done()
			fn()
		}()
	})
}

func (p *Process) closeFds() {
	for _, fd := range p.childFds {
		fd.Close() //nolint:errcheck // cleanup after failed start
	}
	p.childFds = nil
	// Pumps never started; balance the WaitGroup.
	for range p.pumpStarts {
		p.pumps.Done()
	}
	p.pumpStarts = nil
}

func (p *Process) displayArgs() []string {
	if p.conf.DisplayArgs != nil {
		return p.conf.DisplayArgs
	}
	return p.conf.Args
}

// onlyWriter and onlyReader hide ReadFrom/WriteTo so io.CopyBuffer really
// moves one chunk at a time through our buffer.
type onlyWriter struct{ io.Writer }
type onlyReader struct{ io.Reader }

func exitStatus(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// ExitError reports a supervised process that exited nonzero.
type ExitError struct {
	Code    int
	Command string
	Output  []byte
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
}
