package command

import "strings"

// CommandLine renders name and args as a single Windows command line. The
// program path is quoted when needed; arguments are joined untouched so that
// installer switches keep their own quoting.
func CommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, Quote(strings.Trim(name, `"`)))
	parts = append(parts, args...)
	return strings.Join(parts, " ")
}

// Quote wraps p in double quotes when it is empty or contains whitespace.
func Quote(p string) string {
	if p == "" || strings.ContainsAny(p, " \t") {
		return `"` + p + `"`
	}
	return p
}
