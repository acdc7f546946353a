package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogOrder(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{"2022", "2019", "2017", "2016", "2014", "2012", "2008"}, c.Keys())
	assert.Equal(t, []string{"11"}, c.NativeClientKeys())
	assert.Equal(t, []string{"18", "17"}, c.ODBCKeys())
}

func TestDefaultVersionIsInCatalog(t *testing.T) {
	_, ok := Default().Lookup(DefaultVersion)
	assert.True(t, ok)
}

func TestLookup(t *testing.T) {
	c := Default()

	cfg, ok := c.Lookup("2022")
	require.True(t, ok)
	assert.Equal(t, "2022", cfg.Version)
	assert.NotEmpty(t, cfg.BoxURL)
	assert.Nil(t, cfg.OSSupport)
	assert.Contains(t, cfg.UpdateURL, "id=105013")

	cfg, ok = c.Lookup("2014")
	require.True(t, ok)
	assert.Empty(t, cfg.BoxURL)
	assert.Empty(t, cfg.UpdateURL)
	require.NotNil(t, cfg.OSSupport)
	assert.Equal(t, 0, cfg.OSSupport.Min)
	assert.Equal(t, 2019, cfg.OSSupport.Max)
	assert.Equal(t, []string{"/ENABLERANU=1"}, cfg.InstallArgs)

	_, ok = c.Lookup("2005")
	assert.False(t, ok)
}

func TestKeysIsACopy(t *testing.T) {
	c := Default()
	keys := c.Keys()
	keys[0] = "mutated"
	assert.Equal(t, "2022", c.Keys()[0])
}

func TestNativeClient(t *testing.T) {
	c := Default()
	pkg, err := c.NativeClient("11")
	require.NoError(t, err)
	assert.Equal(t, "sqlncli", pkg.Name)
	assert.Equal(t, "11.0", pkg.Version)
	assert.Equal(t, "0CC618CE-F36A-415E-84B4-FB1BFF6967E1", pkg.AppGUID)
	assert.True(t, pkg.Silent)
	assert.Equal(t, []string{"IACCEPTSQLNCLILICENSETERMS=YES"}, pkg.ExtraArgs)

	_, err = c.NativeClient("10")
	assert.EqualError(t, err, "Unsupported Native Client version, only 11 is valid.")
}

func TestODBC(t *testing.T) {
	c := Default()
	pkg, err := c.ODBC("18")
	require.NoError(t, err)
	assert.Equal(t, "msodbcsql", pkg.Name)
	assert.Equal(t, "18", pkg.Version)
	assert.Empty(t, pkg.AppGUID)

	_, err = c.ODBC("13")
	assert.EqualError(t, err, "Invalid ODBC version supplied 13. Must be one of 18, 17.")
}

func TestPackageURL(t *testing.T) {
	both := Package{URLs: map[string]string{"x64": "https://example.com/x64.msi", "x86": "https://example.com/x86.msi"}}
	assert.Equal(t, "https://example.com/x86.msi", both.URL("x86"))
	assert.Equal(t, "https://example.com/x64.msi", both.URL("x64"))

	only64 := Package{URLs: map[string]string{"x64": "https://example.com/x64.msi"}}
	assert.Equal(t, "https://example.com/x64.msi", only64.URL("x86"))

	only86 := Package{URLs: map[string]string{"x86": "https://example.com/x86.msi"}}
	assert.Equal(t, "https://example.com/x86.msi", only86.URL("x64"))
	assert.Equal(t, "https://example.com/x86.msi", only86.URL("arm64"))
}

func TestLoadSilentOverride(t *testing.T) {
	c, err := Load([]byte(`
sqlserver:
  "box":
    exeUrl: https://example.com/installer.exe
    boxUrl: https://example.com/installer.box
odbc:
  "18":
    name: msodbcsql
    silent: false
    urls:
      x64: https://example.com/odbc.msi
`))
	require.NoError(t, err)
	pkg, err := c.ODBC("18")
	require.NoError(t, err)
	assert.False(t, pkg.Silent)
	assert.Empty(t, c.NativeClientKeys())
}

func TestLoadRejectsMissingExeURL(t *testing.T) {
	_, err := Load([]byte("sqlserver:\n  \"2022\":\n    boxUrl: https://example.com/x.box\n"))
	assert.ErrorContains(t, err, "no exeUrl")
}

func TestLoadRejectsSequence(t *testing.T) {
	_, err := Load([]byte("sqlserver:\n  - 2022\n"))
	assert.Error(t, err)
}

func TestLoadSilentSetting(t *testing.T) {
	tests := []struct {
		name    string
		setting string
		want    bool
	}{
		{name: "omitted", want: true},
		{name: "true", setting: "    silent: true\n", want: true},
		{name: "false", setting: "    silent: false\n", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "nativeClient:\n  \"11\":\n    name: sqlncli\n    version: \"11.0\"\n" + tt.setting +
				"    urls:\n      x64: https://example.com/sqlncli.msi\n"
			c, err := Load([]byte(doc))
			require.NoError(t, err)
			pkg, err := c.NativeClient("11")
			require.NoError(t, err)
			assert.Equal(t, tt.want, pkg.Silent)
			assert.Equal(t, "sqlncli", pkg.Name)
			assert.Equal(t, "11.0", pkg.Version)
		})
	}
}
