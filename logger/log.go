package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	nocolor   = "0"
	red       = "31"
	green     = "38;5;48"
	yellow    = "33"
	gray      = "38;5;251"
	lightgray = "38;5;243"
	cyan      = "1;36"
)

const DateFormat = "2006-01-02 15:04:05"

// mutex guards writes so concurrent loggers emit whole lines.
var mutex = sync.Mutex{}

type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Notice(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
	Fatal(format string, v ...any)

	WithFields(fields ...Field) Logger
	SetLevel(level Level)
	Level() Level
}

// TextLogger writes human-readable log lines, with ANSI colors when the
// output is a terminal.
type TextLogger struct {
	Writer io.Writer
	Colors bool
	ExitFn func(int)

	level  Level
	fields Fields
}

func NewTextLogger() *TextLogger {
	return &TextLogger{
		Writer: os.Stderr,
		Colors: ColorsAvailable(),
		level:  INFO,
	}
}

// ColorsAvailable reports whether stderr supports ANSI color output.
func ColorsAvailable() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// WithFields returns a copy of the logger that appends the fields to every
// line it writes.
func (l *TextLogger) WithFields(fields ...Field) Logger {
	clone := *l
	clone.fields = append(append(Fields{}, l.fields...), fields...)
	return &clone
}

func (l *TextLogger) SetLevel(level Level) { l.level = level }
func (l *TextLogger) Level() Level         { return l.level }

func (l *TextLogger) Debug(format string, v ...any)  { l.log(DEBUG, format, v...) }
func (l *TextLogger) Info(format string, v ...any)   { l.log(INFO, format, v...) }
func (l *TextLogger) Notice(format string, v ...any) { l.log(NOTICE, format, v...) }
func (l *TextLogger) Warn(format string, v ...any)   { l.log(WARN, format, v...) }
func (l *TextLogger) Error(format string, v ...any)  { l.log(ERROR, format, v...) }

func (l *TextLogger) Fatal(format string, v ...any) {
	l.log(FATAL, format, v...)
	if l.ExitFn != nil {
		l.ExitFn(1)
		return
	}
	os.Exit(1)
}

func (l *TextLogger) log(level Level, format string, v ...any) {
	if level < l.level {
		return
	}

	message := fmt.Sprintf(format, v...)
	now := time.Now().Format(DateFormat)

	suffix := ""
	for _, f := range l.fields {
		suffix += " " + f.Key() + "=" + f.String()
	}

	line := ""
	if l.Colors {
		levelColor := green
		messageColor := nocolor

		switch level {
		case DEBUG:
			levelColor = gray
			messageColor = gray
		case NOTICE:
			levelColor = cyan
		case WARN:
			levelColor = yellow
		case ERROR, FATAL:
			levelColor = red
		}

		line = fmt.Sprintf("\x1b[%sm%s %-6s\x1b[0m \x1b[%sm%s\x1b[0m\x1b[%sm%s\x1b[0m\n",
			levelColor, now, level, messageColor, message, lightgray, suffix)
	} else {
		line = fmt.Sprintf("%s %-6s %s%s\n", now, level, message, suffix)
	}

	// Make sure we're only outputting a line one at a time
	mutex.Lock()
	fmt.Fprint(l.Writer, line) //nolint:errcheck // logger output
	mutex.Unlock()
}

// JSONLogger writes one JSON object per line, for machine consumption.
type JSONLogger struct {
	Writer io.Writer
	ExitFn func(int)

	level  Level
	fields Fields
}

func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{
		Writer: w,
		level:  INFO,
	}
}

func (l *JSONLogger) WithFields(fields ...Field) Logger {
	clone := *l
	clone.fields = append(append(Fields{}, l.fields...), fields...)
	return &clone
}

func (l *JSONLogger) SetLevel(level Level) { l.level = level }
func (l *JSONLogger) Level() Level         { return l.level }

func (l *JSONLogger) Debug(format string, v ...any)  { l.log(DEBUG, format, v...) }
func (l *JSONLogger) Info(format string, v ...any)   { l.log(INFO, format, v...) }
func (l *JSONLogger) Notice(format string, v ...any) { l.log(NOTICE, format, v...) }
func (l *JSONLogger) Warn(format string, v ...any)   { l.log(WARN, format, v...) }
func (l *JSONLogger) Error(format string, v ...any)  { l.log(ERROR, format, v...) }

func (l *JSONLogger) Fatal(format string, v ...any) {
	l.log(FATAL, format, v...)
	if l.ExitFn != nil {
		l.ExitFn(1)
		return
	}
	os.Exit(1)
}

func (l *JSONLogger) log(level Level, format string, v ...any) {
	if level < l.level {
		return
	}

	record := map[string]string{
		"ts":      time.Now().Format(time.RFC3339),
		"level":   level.String(),
		"message": fmt.Sprintf(format, v...),
	}
	for _, f := range l.fields {
		record[f.Key()] = f.String()
	}

	b, err := json.Marshal(record)
	if err != nil {
		return
	}

	mutex.Lock()
	fmt.Fprintf(l.Writer, "%s\n", b) //nolint:errcheck // logger output
	mutex.Unlock()
}

// Discard is a Logger that throws everything away.
var Discard = &TextLogger{
	Writer: io.Discard,
	level:  FATAL + 1,
}
