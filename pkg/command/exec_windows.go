//go:build windows

package command

import (
	"os/exec"
	"syscall"
)

// configure hides the console window and, for verbatim invocations, hands the
// command line to CreateProcess without Go's argument escaping.
func configure(cmd *exec.Cmd, name string, args []string, opts Options) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow: true,
	}
	if opts.Verbatim {
		cmd.SysProcAttr.CmdLine = CommandLine(name, args)
	}
}
