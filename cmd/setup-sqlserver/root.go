package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/windowsadmins/setup-sqlserver/pkg/actions"
	"github.com/windowsadmins/setup-sqlserver/pkg/catalog"
	"github.com/windowsadmins/setup-sqlserver/pkg/command"
	"github.com/windowsadmins/setup-sqlserver/pkg/config"
	"github.com/windowsadmins/setup-sqlserver/pkg/download"
	"github.com/windowsadmins/setup-sqlserver/pkg/installer"
	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
	"github.com/windowsadmins/setup-sqlserver/pkg/osprobe"
	"github.com/windowsadmins/setup-sqlserver/pkg/readiness"
	"github.com/windowsadmins/setup-sqlserver/pkg/setup"
	"github.com/windowsadmins/setup-sqlserver/pkg/setuplog"
	"github.com/windowsadmins/setup-sqlserver/pkg/toolcache"
)

func newRootCmd(getenv func(string) string, cfg *config.Configuration) *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:   "setup-sqlserver",
		Short: "Install SQL Server on a Windows runner",
		Long: "Installs Microsoft SQL Server, and optionally the SQL Server Native Client and the\n" +
			"ODBC driver, then waits for the database to accept logins.\n\n" +
			"Inputs are read from INPUT_* environment variables as on GitHub Actions;\n" +
			"flags with the same names take precedence.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if debug && !cfg.Debug {
				cfg.Debug = true
				logging.ReInit(logging.LoggerConfig{Output: cmd.OutOrStdout(), Debug: true, Actions: cfg.Actions})
			}
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Log debug diagnostics and always print the detailed setup log.")

	install := newInstallCmd(getenv, cfg)
	root.RunE = install.RunE
	addInstallFlags(root.Flags())

	root.AddCommand(install, newVersionsCmd(cfg), newDocsCmd(), newVersionCmd())
	return root
}

func newInstallCmd(getenv func(string) string, cfg *config.Configuration) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install SQL Server (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src := actions.NewEnvInputs(getenv)
			if err := applyFlags(cmd.Flags(), src); err != nil {
				return err
			}
			inputs, err := config.Gather(src)
			if err != nil {
				return err
			}
			return newInstaller(cfg).Install(cmd.Context(), inputs)
		},
	}
	addInstallFlags(cmd.Flags())
	return cmd
}

func addInstallFlags(fs *pflag.FlagSet) {
	fs.String(config.InputVersion, "", "Version to install, e.g. 2019, sql-2019 or latest.")
	fs.String(config.InputPassword, "", "Password for the sa login (default "+config.DefaultPassword+").")
	fs.String(config.InputCollation, "", "Server collation (default "+config.DefaultCollation+").")
	fs.StringArray(config.InputInstallArguments, nil, "Extra setup.exe argument; may be repeated.")
	fs.Bool(config.InputWaitForReady, config.DefaultWait, "Wait for the database to accept logins.")
	fs.Bool(config.InputSkipOSCheck, false, "Skip the platform and runner image checks.")
	fs.String(config.InputNativeClientVersion, "", "SQL Server Native Client version to install first.")
	fs.String(config.InputODBCVersion, "", "ODBC driver version to install first.")
	fs.Bool(config.InputInstallUpdates, false, "Install the latest cumulative update.")
}

// applyFlags copies explicitly set flags over the environment inputs.
func applyFlags(fs *pflag.FlagSet, src *actions.EnvInputs) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "debug":
		case config.InputInstallArguments:
			var args []string
			args, err = fs.GetStringArray(f.Name)
			src.Set(f.Name, strings.Join(args, "\n"))
		default:
			src.Set(f.Name, f.Value.String())
		}
	})
	return err
}

func newInstaller(cfg *config.Configuration) *setup.Installer {
	runner := command.NewRunner()
	cache := toolcache.New(cfg.ToolCache, cfg.Arch)
	downloader := download.New(cfg.TempDir)
	cat := catalog.Default()

	return setup.New(setup.Deps{
		Catalog:   cat,
		Prober:    osprobe.New(runner),
		Fetcher:   installer.New(cache, downloader, runner, cat),
		Runner:    runner,
		Waiter:    readiness.New(runner),
		Outputs:   actions.NewOutputs(cfg.OutputFile),
		Finalizer: setuplog.New(cfg.SQLServerRoot),
	})
}
