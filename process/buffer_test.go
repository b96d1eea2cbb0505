package process_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/karellen/nomw/process"
)

func TestBufferConcurrentWrites(t *testing.T) {
	t.Parallel()

	b := &process.Buffer{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Fprintf(b, "%03d\n", i) //nolint:errcheck // Buffer.Write can't fail
		}()
	}
	wg.Wait()

	if got, want := len(b.Bytes()), 50*4; got != want {
		t.Errorf("len(b.Bytes()) = %d, want %d", got, want)
	}
}

func TestBufferReadAndTruncate(t *testing.T) {
	t.Parallel()

	b := &process.Buffer{}
	fmt.Fprint(b, "llamas") //nolint:errcheck // Buffer.Write can't fail

	if got, want := string(b.ReadAndTruncate()), "llamas"; got != want {
		t.Errorf("b.ReadAndTruncate() = %q, want %q", got, want)
	}
	if got := b.ReadAndTruncate(); got != nil {
		t.Errorf("b.ReadAndTruncate() after truncate = %q, want nil", got)
	}
}
