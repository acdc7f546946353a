// pkg/config/config.go - action inputs and runner settings for setup-sqlserver.

package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/windowsadmins/setup-sqlserver/pkg/actions"
	"github.com/windowsadmins/setup-sqlserver/pkg/catalog"
	"github.com/windowsadmins/setup-sqlserver/pkg/toolcache"
)

// Input names, as declared in action.yml.
const (
	InputVersion             = "sqlserver-version"
	InputPassword            = "sa-password"
	InputCollation           = "db-collation"
	InputInstallArguments    = "install-arguments"
	InputWaitForReady        = "wait-for-ready"
	InputSkipOSCheck         = "skip-os-check"
	InputNativeClientVersion = "native-client-version"
	InputODBCVersion         = "odbc-version"
	InputInstallUpdates      = "install-updates"
)

// Defaults applied when an input is unset, matching action.yml.
const (
	DefaultPassword  = "P@ssw0rd"
	DefaultCollation = "SQL_Latin1_General_CP1_CI_AS"
	DefaultWait      = true
)

// Inputs is the normalized request for one run.
type Inputs struct {
	Version             string
	Password            string
	Collation           string
	InstallArgs         []string
	Wait                bool
	SkipOSCheck         bool
	NativeClientVersion string // "" skips the native client
	ODBCVersion         string // "" skips the ODBC driver
	InstallUpdates      bool
}

// Configuration holds the runner environment the install works in.
type Configuration struct {
	ToolCache     string
	TempDir       string
	SQLServerRoot string
	OutputFile    string
	Debug         bool
	Actions       bool
	Arch          string
}

// Gather reads the action inputs into an Inputs record. The only errors
// come from src rejecting a malformed boolean.
func Gather(src actions.InputSource) (Inputs, error) {
	wait, err := boolInput(src, InputWaitForReady, DefaultWait)
	if err != nil {
		return Inputs{}, err
	}
	skipOS, err := boolInput(src, InputSkipOSCheck, false)
	if err != nil {
		return Inputs{}, err
	}
	updates, err := boolInput(src, InputInstallUpdates, false)
	if err != nil {
		return Inputs{}, err
	}

	return Inputs{
		Version:             NormalizeVersion(src.GetInput(InputVersion)),
		Password:            orDefault(src.GetInput(InputPassword), DefaultPassword),
		Collation:           orDefault(src.GetInput(InputCollation), DefaultCollation),
		InstallArgs:         src.GetMultilineInput(InputInstallArguments),
		Wait:                wait,
		SkipOSCheck:         skipOS,
		NativeClientVersion: src.GetInput(InputNativeClientVersion),
		ODBCVersion:         src.GetInput(InputODBCVersion),
		InstallUpdates:      updates,
	}, nil
}

// NormalizeVersion strips an optional "sql-" prefix and resolves "latest"
// and the empty string to catalog.DefaultVersion.
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 4 && strings.EqualFold(v[:4], "sql-") {
		v = v[4:]
	}
	if v == "" || strings.EqualFold(v, "latest") {
		return catalog.DefaultVersion
	}
	return v
}

// LoadConfig builds the Configuration from the runner environment. getenv
// defaults to os.Getenv.
func LoadConfig(getenv func(string) string) *Configuration {
	if getenv == nil {
		getenv = os.Getenv
	}

	tempDir := getenv("RUNNER_TEMP")
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	toolCache := getenv("RUNNER_TOOL_CACHE")
	if toolCache == "" {
		toolCache = filepath.Join(tempDir, "setup-sqlserver", "tool-cache")
	}

	// Use ProgramW6432 to get the 64-bit Program Files path
	programFiles := getenv("ProgramW6432")
	if programFiles == "" {
		programFiles = `C:\Program Files`
	}

	return &Configuration{
		ToolCache:     toolCache,
		TempDir:       tempDir,
		SQLServerRoot: filepath.Join(programFiles, "Microsoft SQL Server"),
		OutputFile:    getenv("GITHUB_OUTPUT"),
		Debug:         getenv("RUNNER_DEBUG") == "1",
		Actions:       getenv("GITHUB_ACTIONS") == "true",
		Arch:          toolcache.HostArch(),
	}
}

func boolInput(src actions.InputSource, name string, def bool) (bool, error) {
	if src.GetInput(name) == "" {
		return def, nil
	}
	return src.GetBooleanInput(name)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
