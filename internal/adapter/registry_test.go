package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupKnownLanguages(t *testing.T) {
	for _, lang := range []string{"python", "ruby", "nodejs", "go", "rust"} {
		cfg, ok := Lookup(lang)
		require.True(t, ok, "expected %s to be registered", lang)
		require.Equal(t, lang, cfg.Language)
		require.NotEmpty(t, cfg.Command)
		require.NotNil(t, cfg.ArgsTemplate)
		require.NotNil(t, cfg.FirstExecutableLine)
	}
}

func TestLookupUnknownLanguage(t *testing.T) {
	_, ok := Lookup("cobol")
	require.False(t, ok)
}

func TestNodeJSUsesParentChildSpawnMode(t *testing.T) {
	cfg, ok := Lookup("nodejs")
	require.True(t, ok)
	require.Equal(t, SpawnParentChildOverSamePort, cfg.SpawnMode)
	require.Equal(t, StopOnEntryTargetSpecific, cfg.StopOnEntryStrategy)
}

func TestRubyEmulatesStopOnEntry(t *testing.T) {
	cfg, ok := Lookup("ruby")
	require.True(t, ok)
	require.Equal(t, StopOnEntryBreakpoint, cfg.StopOnEntryStrategy)
}

func TestPythonUsesStdioTransport(t *testing.T) {
	cfg, ok := Lookup("python")
	require.True(t, ok)
	require.Equal(t, TransportStdio, cfg.TransportKind)
}

func TestArgsTemplatesIncludePort(t *testing.T) {
	cfg, _ := Lookup("go")
	args := cfg.ArgsTemplate(LaunchParams{Program: "/tmp/prog", Port: 4711})
	require.Contains(t, args, "127.0.0.1:4711")
}
