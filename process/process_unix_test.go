//go:build !windows

package process_test

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/karellen/nomw/logger"
	"github.com/karellen/nomw/process"
)

func TestWaitTimeoutDoesNotKillChild(t *testing.T) {
	t.Parallel()

	p := process.New(logger.Discard, process.Config{
		Path: os.Args[0],
		Env:  []string{"TEST_MAIN=sleep"},
	})

	if err := p.Start(); err != nil {
		t.Fatalf("p.Start() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, err := p.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("p.Wait(ctx) error = %v, want context.DeadlineExceeded", err)
	}

	// The child must still be running: a timed-out wait never kills it.
	if err := syscall.Kill(p.Pid(), 0); err != nil {
		t.Errorf("syscall.Kill(%d, 0) error = %v, want nil (child should be alive)", p.Pid(), err)
	}

	if err := p.Terminate(); err != nil {
		t.Fatalf("p.Terminate() error = %v", err)
	}

	if _, err := p.Wait(context.Background()); err != nil {
		t.Fatalf("p.Wait() after Terminate error = %v", err)
	}
}

func TestProcessRunsInOwnProcessGroup(t *testing.T) {
	t.Parallel()

	p := process.New(logger.Discard, process.Config{
		Path: os.Args[0],
		Env:  []string{"TEST_MAIN=sleep"},
	})

	if err := p.Start(); err != nil {
		t.Fatalf("p.Start() error = %v", err)
	}

	// The child leads its own group, so group signals can't hit us.
	pgid, err := process.GetPgid(p.Pid())
	if err != nil {
		t.Fatalf("process.GetPgid(%d) error = %v", p.Pid(), err)
	}
	if pgid != p.Pid() {
		t.Errorf("process.GetPgid(%d) = %d, want the child to lead its own group", p.Pid(), pgid)
	}
	if own := syscall.Getpgrp(); pgid == own {
		t.Errorf("child PGID %d equals the test's own PGID, want separate groups", pgid)
	}

	if err := p.Terminate(); err != nil {
		t.Fatalf("p.Terminate() error = %v", err)
	}
	if _, err := p.Wait(context.Background()); err != nil {
		t.Fatalf("p.Wait() after Terminate error = %v", err)
	}
}
