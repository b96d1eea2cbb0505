package logger

import (
	"fmt"
	"strings"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	NOTICE
	WARN
	ERROR
	FATAL
)

var levelNames = []string{
	"DEBUG",
	"INFO",
	"NOTICE",
	"WARN",
	"ERROR",
	"FATAL",
}

// String returns the string representation of a logging level.
func (l Level) String() string {
	if l < DEBUG || l > FATAL {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel converts a level name as printed by String back into a Level.
// Matching ignores case, so flag values like "notice" work.
func ParseLevel(name string) (Level, error) {
	for i, n := range levelNames {
		if strings.EqualFold(n, name) {
			return Level(i), nil
		}
	}
	return INFO, fmt.Errorf("unknown log level %q", name)
}
