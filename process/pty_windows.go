//go:build windows

package process

import "errors"

func (p *Process) startPTY() error {
	return errors.New("PTY is not supported on this platform")
}
