//go:build !windows

package process

import (
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/creack/pty"
)

// startPTY spawns the child under a pseudo-terminal. Stdout and stderr
// arrive combined on the pty; the stdout sink receives all of it.
func (p *Process) startPTY() error {
	ptmx, err := pty.Start(p.command)
	if err != nil {
		return err
	}
	p.pty = ptmx

	sink := p.conf.Stdout
	if sink == nil {
		sink = io.Discard
	}
	p.addPump("pty", func() {
		p.pump("pty", ptyReader{ptmx}, sink)
	})

	if src := p.conf.Stdin; src != nil {
		p.addPump("pty-stdin", func() {
			if _, err := io.Copy(ptmx, src); err != nil && !errors.Is(err, syscall.EPIPE) {
				p.logger.Error("[Process] pty stdin pump: %v", err)
			}
		})
	}

	return nil
}

// ptyReader converts the EIO a pty returns on close into a clean EOF.
// Linux reports EIO from a pty master once the child side is gone.
type ptyReader struct {
	f *os.File
}

func (r ptyReader) Read(b []byte) (int, error) {
	n, err := r.f.Read(b)
	if pathErr := new(os.PathError); errors.As(err, &pathErr) && pathErr.Err == syscall.EIO {
		return n, io.EOF
	}
	return n, err
}
