//go:build !windows

package command

import "os/exec"

func configure(_ *exec.Cmd, _ string, _ []string, _ Options) {}
