// pkg/command/command.go - running external installers and tools.

package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
)

// Options control a single process invocation.
type Options struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// Verbatim passes the arguments to the Windows command line unquoted,
	// which vendor installers expect for values such as /SAPWD="secret".
	Verbatim bool
	// IgnoreReturnCode reports a non-zero exit status through Result instead of an error.
	IgnoreReturnCode bool
	// Silent captures output without echoing it to the job log.
	Silent bool
}

// Result describes a finished process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, name string, args []string, opts Options) (Result, error)
}

// ExecRunner runs commands with os/exec, streaming their output to the job log.
type ExecRunner struct {
	output func() io.Writer
}

// NewRunner creates an ExecRunner writing to the shared logging stream.
func NewRunner() *ExecRunner {
	return &ExecRunner{output: logging.Writer}
}

// Run executes name with args and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, opts Options) (Result, error) {
	// callers may hand us a pre-quoted path, exec wants the bare one
	name = strings.Trim(name, `"`)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	configure(cmd, name, args, opts)

	var stdout, stderr bytes.Buffer
	if opts.Silent {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		out := r.output()
		fmt.Fprintf(out, "[command]%s\n", CommandLine(name, args))
		cmd.Stdout = io.MultiWriter(&stdout, out)
		cmd.Stderr = io.MultiWriter(&stderr, out)
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if opts.IgnoreReturnCode {
			return res, nil
		}
		return res, fmt.Errorf("%s failed with exit code %d: %w", name, res.ExitCode, err)
	}
	// Capture BOTH error and stderr
	return res, fmt.Errorf("command execution failed: %w | stderr: %s", err, strings.TrimSpace(stderr.String()))
}
