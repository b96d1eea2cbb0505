//go:build windows

package process

import (
	"errors"
	"os/exec"
	"strconv"
	"syscall"
)

// Windows has no process groups in the unix sense. The child is created in
// its own console group, interrupts deliver a console break event to it,
// and termination falls back to TASKKILL /F /T which hard-kills the whole
// process tree.
// See https://docs.microsoft.com/en-us/windows/console/generateconsolectrlevent

const createNewProcessGroupFlag = 0x00000200

var (
	libkernel32                  = syscall.MustLoadDLL("kernel32")
	procGenerateConsoleCtrlEvent = libkernel32.MustFindProc("GenerateConsoleCtrlEvent")
)

func (p *Process) setupProcessGroup() {
	p.command.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_UNICODE_ENVIRONMENT | createNewProcessGroupFlag,
	}
}

func (p *Process) interruptProcessGroup() error {
	// CTRL_BREAK_EVENT = 1
	r1, _, err := procGenerateConsoleCtrlEvent.Call(1, uintptr(p.pid))
	if r1 == 0 {
		return err
	}
	return nil
}

func (p *Process) terminateProcessGroup() error {
	p.logger.Debug("[Process] Terminating process tree with TASKKILL.EXE PID %d", p.pid)
	return exec.Command("CMD", "/C", "TASKKILL.EXE", "/F", "/T", "/PID", strconv.Itoa(p.pid)).Run()
}

func GetPgid(pid int) (int, error) {
	return 0, errors.New("process groups are not supported on windows")
}
