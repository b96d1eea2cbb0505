package process_test

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"testing"
	"time"
)

// Invoked by `go test`, switch between helper and running tests based on env
func TestMain(m *testing.M) {
	switch os.Getenv("TEST_MAIN") {
	case "tester":
		for _, line := range strings.Split(strings.TrimSuffix(longTestOutput, "\n"), "\n") {
			fmt.Printf("%s\n", line)
			time.Sleep(time.Millisecond * 20)
		}
		os.Exit(0)

	case "output":
		fmt.Fprintf(os.Stdout, "llamas1\n")  //nolint:errcheck // test helper process output
		fmt.Fprintf(os.Stderr, "alpacas1\n") //nolint:errcheck // test helper process output
		fmt.Fprintf(os.Stdout, "llamas2\n")  //nolint:errcheck // test helper process output
		fmt.Fprintf(os.Stderr, "alpacas2\n") //nolint:errcheck // test helper process output
		os.Exit(0)

	case "echo-stdin":
		if _, err := io.Copy(os.Stdout, os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "copy: %v", err) //nolint:errcheck // test helper process output
			os.Exit(1)
		}
		os.Exit(0)

	case "fail":
		fmt.Print("llamas rock\n")
		os.Exit(2)

	case "sleep":
		time.Sleep(30 * time.Second)
		os.Exit(0)

	case "tester-signal":
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt,
			syscall.SIGTERM,
			syscall.SIGINT,
		)
		fmt.Println("Ready")
		fmt.Printf("SIG %v", <-signals)
		os.Exit(0)

	default:
		os.Exit(m.Run())
	}
}
