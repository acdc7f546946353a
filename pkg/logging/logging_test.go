package logging

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useBuffer(t *testing.T, cfg LoggerConfig) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cfg.Output = &buf
	ReInit(cfg)
	swapMu.RLock()
	instance.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }
	swapMu.RUnlock()
	t.Cleanup(func() { ReInit(LoggerConfig{}) })
	return &buf
}

func TestActionsRendering(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{name: "info is plain", log: func() { Info("Installing", "version", "2022") }, want: "Installing version=2022\n"},
		{name: "debug", log: func() { Debug("Cached", "path", `C:\tool cache`) }, want: "::debug::Cached path=\"C:\\\\tool cache\"\n"},
		{name: "notice", log: func() { Notice("No summary files found") }, want: "::notice::No summary files found\n"},
		{name: "warning escapes newlines", log: func() { Warn("line one\nline two") }, want: "::warning::line one%0Aline two\n"},
		{name: "error escapes percent", log: func() { Error("100% broken") }, want: "::error::100%25 broken\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := useBuffer(t, LoggerConfig{Actions: true})
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLocalDebugSuppressed(t *testing.T) {
	buf := useBuffer(t, LoggerConfig{})
	Debug("hidden")
	assert.Empty(t, buf.String())
	assert.False(t, IsDebug())
}

func TestLocalRendering(t *testing.T) {
	color.NoColor = true
	buf := useBuffer(t, LoggerConfig{Debug: true})
	Debug("visible", "attempt", 2)
	assert.Equal(t, "[2024-05-01 10:30:00] DEBUG  visible attempt=2\n", buf.String())
	assert.True(t, IsDebug())
}

func TestGroup(t *testing.T) {
	buf := useBuffer(t, LoggerConfig{Actions: true})
	err := Group("Installing SQL Server", func() error {
		Info("inside")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "::group::Installing SQL Server\ninside\n::endgroup::\n", buf.String())
}

func TestCommand(t *testing.T) {
	buf := useBuffer(t, LoggerConfig{Actions: true})
	Command("set-output", map[string]string{"name": "instance-name"}, "MSSQLSERVER")
	Command("add-mask", nil, "p@ss:word")
	assert.Equal(t, "::set-output name=instance-name::MSSQLSERVER\n::add-mask::p@ss:word\n", buf.String())
}

func TestCommandLocalIsNoop(t *testing.T) {
	buf := useBuffer(t, LoggerConfig{})
	Command("add-mask", nil, "secret")
	assert.Empty(t, buf.String())
}

func TestFormatKeyValuesOddCount(t *testing.T) {
	assert.Equal(t, " a=1 dangling", formatKeyValues([]interface{}{"a", 1, "dangling"}))
}
