// pkg/setup/setup.go - the install sequence for SQL Server on a Windows runner.
//
// Steps run in order:
//
//	ValidatingInputs -> CheckingOs -> InstallingDependencies -> FetchingInstaller
//	  -> FetchingUpdates -> Installing -> WaitingForReady -> Done
//
// Any step before Installing may end the run in Failed. Once Installing has
// started, Finalizing always runs and prints the setup logs, including the
// detail log when the install failed.

package setup

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/windowsadmins/setup-sqlserver/pkg/actions"
	"github.com/windowsadmins/setup-sqlserver/pkg/catalog"
	"github.com/windowsadmins/setup-sqlserver/pkg/command"
	"github.com/windowsadmins/setup-sqlserver/pkg/config"
	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
	"github.com/windowsadmins/setup-sqlserver/pkg/outcome"
	"github.com/windowsadmins/setup-sqlserver/pkg/readiness"
)

// InstanceName is the SQL Server instance every install creates.
const InstanceName = "MSSQLSERVER"

// Output names, as declared in action.yml.
const (
	OutputPassword     = "sa-password"
	OutputInstanceName = "instance-name"
)

// OSProber detects the runner OS year.
type OSProber interface {
	Probe(ctx context.Context) (int, bool)
}

// Fetcher resolves installers and installs driver packages.
type Fetcher interface {
	FindOrDownload(ctx context.Context, cfg catalog.VersionConfig) (string, error)
	FindOrDownloadUpdates(ctx context.Context, cfg catalog.VersionConfig) (string, outcome.Advisory, error)
	InstallNativeClient(ctx context.Context, version string) error
	InstallODBC(ctx context.Context, version string) error
}

// ReadinessWaiter waits for the server to accept logins.
type ReadinessWaiter interface {
	WaitUntilReady(ctx context.Context, password string) readiness.Result
}

// OutputSetter records step outputs.
type OutputSetter interface {
	SetOutput(name, value string) error
}

// Finalizer prints the setup logs.
type Finalizer interface {
	Finalize(ctx context.Context, withDetail bool) error
}

// Deps are the collaborators of an Installer.
type Deps struct {
	Catalog   *catalog.Catalog
	Prober    OSProber
	Fetcher   Fetcher
	Runner    command.Runner
	Waiter    ReadinessWaiter
	Outputs   OutputSetter
	Finalizer Finalizer

	// GOOS defaults to runtime.GOOS.
	GOOS string
	// Debug defaults to logging.IsDebug.
	Debug func() bool
	// OnTransition is called on every state change.
	OnTransition func(from, to State)
}

// Installer runs one install.
type Installer struct {
	deps  Deps
	state State
}

// New creates an Installer.
func New(deps Deps) *Installer {
	if deps.Catalog == nil {
		deps.Catalog = catalog.Default()
	}
	if deps.GOOS == "" {
		deps.GOOS = runtime.GOOS
	}
	if deps.Debug == nil {
		deps.Debug = logging.IsDebug
	}
	return &Installer{deps: deps, state: ValidatingInputs}
}

// State returns the current step.
func (in *Installer) State() State {
	return in.state
}

func (in *Installer) transition(to State) {
	from := in.state
	in.state = to
	logging.Debug("Install state changed", "from", from, "to", to)
	if in.deps.OnTransition != nil {
		in.deps.OnTransition(from, to)
	}
}

func (in *Installer) fail(err error) error {
	in.transition(Failed)
	return err
}

// Install runs the whole sequence for inputs.
func (in *Installer) Install(ctx context.Context, inputs config.Inputs) error {
	// the password ends up on the setup.exe command line and in the outputs
	actions.AddMask(inputs.Password)

	cfg, err := in.validate(inputs)
	if err != nil {
		return in.fail(err)
	}

	in.transition(CheckingOS)
	if err := in.checkOS(ctx, inputs, cfg); err != nil {
		return in.fail(err)
	}

	if inputs.NativeClientVersion != "" || inputs.ODBCVersion != "" {
		in.transition(InstallingDependencies)
		if err := in.installDependencies(ctx, inputs); err != nil {
			return in.fail(err)
		}
	}

	in.transition(FetchingInstaller)
	var toolPath string
	err = logging.Group(fmt.Sprintf("Fetching install media for %s", cfg.Version), func() error {
		var err error
		toolPath, err = in.deps.Fetcher.FindOrDownload(ctx, cfg)
		return err
	})
	if err != nil {
		return in.fail(err)
	}

	installArgs := append([]string(nil), inputs.InstallArgs...)
	if inputs.InstallUpdates {
		extra, err := in.fetchUpdates(ctx, cfg)
		if err != nil {
			return in.fail(err)
		}
		installArgs = append(installArgs, extra...)
	}

	return in.installAndWait(ctx, inputs, cfg, toolPath, installArgs)
}

// validate is the ValidatingInputs step.
func (in *Installer) validate(inputs config.Inputs) (catalog.VersionConfig, error) {
	// only Windows is supported, but the check can be skipped
	if !inputs.SkipOSCheck && in.deps.GOOS != "windows" {
		return catalog.VersionConfig{}, outcome.Configf("setup-sqlserver only supports Windows runners, got: %s", in.deps.GOOS)
	}
	cfg, ok := in.deps.Catalog.Lookup(inputs.Version)
	if !ok {
		return catalog.VersionConfig{}, outcome.Configf("Unsupported SQL Version, supported versions are %s, got: %s",
			strings.Join(in.deps.Catalog.Keys(), ", "), inputs.Version)
	}
	// driver versions are checked before anything is installed
	if inputs.NativeClientVersion != "" {
		if _, err := in.deps.Catalog.NativeClient(inputs.NativeClientVersion); err != nil {
			return catalog.VersionConfig{}, err
		}
	}
	if inputs.ODBCVersion != "" {
		if _, err := in.deps.Catalog.ODBC(inputs.ODBCVersion); err != nil {
			return catalog.VersionConfig{}, err
		}
	}
	return cfg, nil
}

// checkOS is the CheckingOs step: fail fast when the runner image is outside
// the release's supported range.
func (in *Installer) checkOS(ctx context.Context, inputs config.Inputs, cfg catalog.VersionConfig) error {
	if cfg.OSSupport == nil {
		return nil
	}
	if inputs.SkipOSCheck {
		logging.Info("Skipping OS checks")
		return nil
	}
	year, ok := in.deps.Prober.Probe(ctx)
	if !ok {
		logging.Notice("Unable to determine OS version, continuing tentatively")
		return nil
	}
	return CheckBounds(year, cfg)
}

// CheckBounds returns a ConfigError when year is outside cfg's OS support.
func CheckBounds(year int, cfg catalog.VersionConfig) error {
	if cfg.OSSupport == nil {
		return nil
	}
	lo, hi := cfg.OSSupport.Min, cfg.OSSupport.Max
	if (lo == 0 || year >= lo) && (hi == 0 || year <= hi) {
		return nil
	}

	var use strings.Builder
	use.WriteString("Please use ")
	if lo != 0 {
		fmt.Fprintf(&use, "windows-%d", lo)
	}
	if hi != 0 {
		if lo != 0 {
			use.WriteString(" to ")
		}
		fmt.Fprintf(&use, "windows-%d", hi)
	}
	use.WriteString(".")
	return outcome.Configf("Runner version windows-%d is not supported for SQL Server %s. %s", year, cfg.Version, use.String())
}

// installDependencies is the InstallingDependencies step.
func (in *Installer) installDependencies(ctx context.Context, inputs config.Inputs) error {
	if inputs.NativeClientVersion != "" {
		err := logging.Group("Installing SQL Native Client", func() error {
			return in.deps.Fetcher.InstallNativeClient(ctx, inputs.NativeClientVersion)
		})
		if err != nil {
			return err
		}
	}
	if inputs.ODBCVersion != "" {
		return logging.Group("Installing ODBC", func() error {
			return in.deps.Fetcher.InstallODBC(ctx, inputs.ODBCVersion)
		})
	}
	return nil
}

// fetchUpdates is the FetchingUpdates step. It returns the installer
// arguments that apply the update, if one was found.
func (in *Installer) fetchUpdates(ctx context.Context, cfg catalog.VersionConfig) ([]string, error) {
	if cfg.UpdateURL == "" {
		logging.Info("Skipping update installation - version not supported")
		return nil, nil
	}
	in.transition(FetchingUpdates)

	var updatePath string
	err := logging.Group(fmt.Sprintf("Fetching cumulative updates for %s", cfg.Version), func() error {
		path, adv, err := in.deps.Fetcher.FindOrDownloadUpdates(ctx, cfg)
		if err != nil {
			return err
		}
		if !adv.OK() {
			logging.Warn(adv.Message)
			if adv.Cause != nil {
				logging.Debug("Cumulative update lookup failed", "error", adv.Cause)
			}
			return nil
		}
		updatePath = path
		return nil
	})
	if err != nil || updatePath == "" {
		return nil, err
	}
	return []string{"/UPDATEENABLED=1", "/UpdateSource=" + filepath.Dir(updatePath)}, nil
}

// installAndWait covers Installing and WaitingForReady; the setup logs are
// printed whatever the result.
func (in *Installer) installAndWait(ctx context.Context, inputs config.Inputs, cfg catalog.VersionConfig, toolPath string, installArgs []string) (err error) {
	defer func() {
		in.transition(Finalizing)
		withDetail := err != nil || in.deps.Debug()
		if ferr := in.deps.Finalizer.Finalize(context.WithoutCancel(ctx), withDetail); ferr != nil {
			logging.Warn("Unable to print setup logs", "error", ferr)
		}
		if err != nil {
			in.transition(Failed)
			return
		}
		in.transition(Done)
	}()

	in.transition(Installing)
	args := InstallArgs(inputs, cfg, installArgs)
	err = logging.Group("Installing SQL Server", func() error {
		_, err := in.deps.Runner.Run(ctx, command.Quote(toolPath), args, command.Options{Verbatim: true})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to install SQL Server %s: %w", cfg.Version, err)
	}

	if err := in.deps.Outputs.SetOutput(OutputPassword, inputs.Password); err != nil {
		return err
	}
	if err := in.deps.Outputs.SetOutput(OutputInstanceName, InstanceName); err != nil {
		return err
	}

	if inputs.Wait {
		in.transition(WaitingForReady)
		_ = logging.Group("Waiting for database", func() error {
			res := in.deps.Waiter.WaitUntilReady(ctx, inputs.Password)
			if !res.Advisory.OK() {
				logging.Warn(res.Advisory.Message)
			}
			return nil
		})
	}

	logging.Info(fmt.Sprintf("SQL Server %s installed", cfg.Version))
	return nil
}

// InstallArgs builds the setup.exe command line: the fixed switches, the
// release's own switches, then extra. A switch given twice is passed twice
// and setup.exe applies the last one.
func InstallArgs(inputs config.Inputs, cfg catalog.VersionConfig, extra []string) []string {
	args := []string{
		"/q",
		"/ACTION=Install",
		"/FEATURES=SQLEngine",
		"/INSTANCENAME=" + InstanceName,
		`/SQLSYSADMINACCOUNTS="BUILTIN\ADMINISTRATORS"`,
		"/TCPENABLED=1",
		"/NPENABLED=0",
		fmt.Sprintf(`/SQLCOLLATION="%s"`, inputs.Collation),
		"/SECURITYMODE=SQL",
		fmt.Sprintf(`/SAPWD="%s"`, inputs.Password),
		"/IACCEPTSQLSERVERLICENSETERMS",
	}
	args = append(args, cfg.InstallArgs...)
	return append(args, extra...)
}
