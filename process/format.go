package process

import (
	"strings"
	"unicode/utf8"
)

// FormatCommand formats a command and arguments for human reading.
// Arguments containing spaces or newlines are quoted and truncated.
func FormatCommand(command string, args []string) string {
	truncate := func(s string, i int) string {
		if len(s) < i {
			return s
		}

		if utf8.ValidString(s[:i]) {
			return s[:i] + "..."
		}

		return s[:i+1] + "..."
	}

	s := []string{command}
	for _, a := range args {
		if strings.ContainsAny(a, " \n") {
			a = strings.ReplaceAll(strings.ReplaceAll(a, "\n", ""), `"`, `\"`)
			s = append(s, `"`+truncate(a, 40)+`"`)
		} else {
			s = append(s, a)
		}
	}

	return strings.Join(s, " ")
}
