//go:build !windows

package process

import "syscall"

func (p *Process) setupProcessGroup() {
	// Setpgid conflicts with the Setsid a pty start performs.
	if !p.conf.PTY {
		p.command.SysProcAttr = &syscall.SysProcAttr{
			Setpgid: true,
			Pgid:    0,
		}
	}
}

func (p *Process) interruptProcessGroup() error {
	sig := p.conf.InterruptSignal
	if sig == Signal(0) {
		sig = SIGTERM
	}

	p.logger.Debug("[Process] Sending signal %s to PGID %d", sig, p.pid)
	return syscall.Kill(-p.pid, syscall.Signal(sig))
}

func (p *Process) terminateProcessGroup() error {
	p.logger.Debug("[Process] Sending signal SIGKILL to PGID %d", p.pid)
	return syscall.Kill(-p.pid, syscall.SIGKILL)
}

func GetPgid(pid int) (int, error) {
	return syscall.Getpgid(pid)
}
