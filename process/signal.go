package process

import "fmt"

// Signal is a portable subset of the signals a supervisor may want to
// forward to a child.
type Signal int

const (
	SIGHUP  Signal = 1
	SIGINT  Signal = 2
	SIGQUIT Signal = 3
	SIGKILL Signal = 9
	SIGTERM Signal = 15
)

var signalMap = map[string]Signal{
	"SIGHUP":  SIGHUP,
	"SIGINT":  SIGINT,
	"SIGQUIT": SIGQUIT,
	"SIGKILL": SIGKILL,
	"SIGTERM": SIGTERM,
}

func (s Signal) String() string {
	for name, sig := range signalMap {
		if sig == s {
			return name
		}
	}
	return fmt.Sprintf("Signal(%d)", int(s))
}

// ParseSignal returns the Signal for a name like "SIGTERM".
func ParseSignal(sig string) (Signal, error) {
	s, ok := signalMap[sig]
	if !ok {
		return Signal(0), fmt.Errorf("unknown signal %q", sig)
	}
	return s, nil
}
