package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/windowsadmins/setup-sqlserver/pkg/config"
	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
	"github.com/windowsadmins/setup-sqlserver/pkg/utils"
)

func main() {
	enableANSIConsole()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, utils.CommandLineArgs(), os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code. Failures
// are reported through the logger so the runner marks the step as failed.
func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	cfg := config.LoadConfig(getenv)
	logging.ReInit(logging.LoggerConfig{Output: stdout, Debug: cfg.Debug, Actions: cfg.Actions})

	cmd := newRootCmd(getenv, cfg)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		logging.Error(err.Error())
		return 1
	}
	return 0
}
