package actions

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
)

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestGetInput(t *testing.T) {
	in := NewEnvInputs(envOf(map[string]string{
		"INPUT_SQLSERVER-VERSION": "  sql-2019 ",
		"INPUT_MY_INPUT":          "spaced",
	}))
	assert.Equal(t, "sql-2019", in.GetInput("sqlserver-version"))
	assert.Equal(t, "spaced", in.GetInput("my input"))
	assert.Empty(t, in.GetInput("db-collation"))

	in.Set("sqlserver-version", "2017")
	assert.Equal(t, "2017", in.GetInput("sqlserver-version"))
}

func TestGetBooleanInput(t *testing.T) {
	tests := []struct {
		value   string
		want    bool
		wantErr bool
	}{
		{value: "true", want: true},
		{value: "True", want: true},
		{value: "TRUE", want: true},
		{value: "false"},
		{value: "False"},
		{value: "FALSE"},
		{value: ""},
		{value: "yes", wantErr: true},
		{value: "1", wantErr: true},
		{value: "tRuE", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			in := NewEnvInputs(envOf(map[string]string{"INPUT_WAIT-FOR-READY": tt.value}))
			got, err := in.GetBooleanInput("wait-for-ready")
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "wait-for-ready")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetMultilineInput(t *testing.T) {
	in := NewEnvInputs(envOf(map[string]string{
		"INPUT_INSTALL-ARGUMENTS": "/FEATURES=SQLEngine,FullText\n\n  /SQLSVCACCOUNT=\"NT AUTHORITY\\NETWORK SERVICE\"\r\n",
	}))
	assert.Equal(t, []string{
		"/FEATURES=SQLEngine,FullText",
		`/SQLSVCACCOUNT="NT AUTHORITY\NETWORK SERVICE"`,
	}, in.GetMultilineInput("install-arguments"))
	assert.Nil(t, in.GetMultilineInput("missing"))
}

func TestSetOutputFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "output")
	out := NewOutputs(file)
	require.NoError(t, out.SetOutput("sa-password", "p@ss\nword"))
	require.NoError(t, out.SetOutput("instance-name", "MSSQLSERVER"))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	re := regexp.MustCompile(`(?s)^sa-password<<(ghadelimiter_[0-9a-f-]+)\np@ss\nword\n(ghadelimiter_[0-9a-f-]+)\ninstance-name<<(ghadelimiter_[0-9a-f-]+)\nMSSQLSERVER\n(ghadelimiter_[0-9a-f-]+)\n$`)
	m := re.FindStringSubmatch(string(data))
	require.NotNil(t, m, string(data))
	assert.Equal(t, m[1], m[2])
	assert.Equal(t, m[3], m[4])
	assert.NotEqual(t, m[1], m[3])
}

func TestSetOutputCommandFallback(t *testing.T) {
	var buf bytes.Buffer
	logging.ReInit(logging.LoggerConfig{Output: &buf, Actions: true})
	t.Cleanup(func() { logging.ReInit(logging.LoggerConfig{}) })

	require.NoError(t, NewOutputs("").SetOutput("instance-name", "MSSQLSERVER"))
	assert.Contains(t, buf.String(), "::set-output name=instance-name::MSSQLSERVER\n")
}

func TestAddMask(t *testing.T) {
	var buf bytes.Buffer
	logging.ReInit(logging.LoggerConfig{Output: &buf, Actions: true})
	t.Cleanup(func() { logging.ReInit(logging.LoggerConfig{}) })

	AddMask("")
	AddMask("secret%value")
	assert.Equal(t, "::add-mask::secret%25value\n", buf.String())
}
