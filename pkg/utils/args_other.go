//go:build !windows

package utils

import "os"

// CommandLineArgs returns the process arguments without the program name.
func CommandLineArgs() []string {
	return os.Args[1:]
}
