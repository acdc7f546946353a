package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/setup-sqlserver/pkg/actions"
	"github.com/windowsadmins/setup-sqlserver/pkg/catalog"
)

func inputsFrom(vars map[string]string) *actions.EnvInputs {
	return actions.NewEnvInputs(func(key string) string { return vars[key] })
}

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: catalog.DefaultVersion},
		{in: "latest", want: catalog.DefaultVersion},
		{in: "LATEST", want: catalog.DefaultVersion},
		{in: "sql-latest", want: catalog.DefaultVersion},
		{in: "2019", want: "2019"},
		{in: "sql-2019", want: "2019"},
		{in: "SQL-2017", want: "2017"},
		{in: " Sql-2016 ", want: "2016"},
		{in: "sql-", want: catalog.DefaultVersion},
		{in: "sq", want: "sq"},
		{in: "2005", want: "2005"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeVersion(tt.in))
		})
	}
}

func TestGather(t *testing.T) {
	in, err := Gather(inputsFrom(map[string]string{
		"INPUT_SQLSERVER-VERSION":     "sql-2019",
		"INPUT_SA-PASSWORD":           "S3cret!",
		"INPUT_DB-COLLATION":          "Latin1_General_CS_AS",
		"INPUT_INSTALL-ARGUMENTS":     "/FEATURES=SQLEngine,FullText\n/ENU",
		"INPUT_WAIT-FOR-READY":        "false",
		"INPUT_SKIP-OS-CHECK":         "TRUE",
		"INPUT_NATIVE-CLIENT-VERSION": "11",
		"INPUT_ODBC-VERSION":          "18",
		"INPUT_INSTALL-UPDATES":       "True",
	}))
	require.NoError(t, err)
	assert.Equal(t, Inputs{
		Version:             "2019",
		Password:            "S3cret!",
		Collation:           "Latin1_General_CS_AS",
		InstallArgs:         []string{"/FEATURES=SQLEngine,FullText", "/ENU"},
		Wait:                false,
		SkipOSCheck:         true,
		NativeClientVersion: "11",
		ODBCVersion:         "18",
		InstallUpdates:      true,
	}, in)
}

func TestGatherDefaults(t *testing.T) {
	in, err := Gather(inputsFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultVersion, in.Version)
	assert.Equal(t, DefaultPassword, in.Password)
	assert.Equal(t, DefaultCollation, in.Collation)
	assert.True(t, in.Wait)
	assert.False(t, in.SkipOSCheck)
	assert.False(t, in.InstallUpdates)
	assert.Empty(t, in.InstallArgs)
	assert.Empty(t, in.NativeClientVersion)
	assert.Empty(t, in.ODBCVersion)
}

func TestGatherInvalidBoolean(t *testing.T) {
	_, err := Gather(inputsFrom(map[string]string{"INPUT_SKIP-OS-CHECK": "yes"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), InputSkipOSCheck)
}

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(func(key string) string {
		return map[string]string{
			"RUNNER_TOOL_CACHE": `D:\hostedtoolcache`,
			"RUNNER_TEMP":       `D:\a\_temp`,
			"RUNNER_DEBUG":      "1",
			"GITHUB_OUTPUT":     `D:\a\_temp\_runner_file_commands\set_output`,
			"GITHUB_ACTIONS":    "true",
			"ProgramW6432":      `C:\Program Files`,
		}[key]
	})
	assert.Equal(t, `D:\hostedtoolcache`, cfg.ToolCache)
	assert.Equal(t, `D:\a\_temp`, cfg.TempDir)
	assert.Equal(t, filepath.Join(`C:\Program Files`, "Microsoft SQL Server"), cfg.SQLServerRoot)
	assert.Equal(t, `D:\a\_temp\_runner_file_commands\set_output`, cfg.OutputFile)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.Actions)
	assert.NotEmpty(t, cfg.Arch)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(func(string) string { return "" })
	assert.NotEmpty(t, cfg.TempDir)
	assert.Equal(t, filepath.Join(cfg.TempDir, "setup-sqlserver", "tool-cache"), cfg.ToolCache)
	assert.Equal(t, filepath.Join(`C:\Program Files`, "Microsoft SQL Server"), cfg.SQLServerRoot)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.Actions)
	assert.Empty(t, cfg.OutputFile)
}
