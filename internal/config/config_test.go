package config

import (
	"log/slog"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func load(t *testing.T, args ...string) (*Settings, error) {
	t.Helper()
	v, err := NewViper(newFlags(t, args...))
	require.NoError(t, err)
	return Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	settings, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, ModeStdio, settings.Mode)
	assert.Equal(t, "./prompts", settings.PromptsDir)
	assert.Equal(t, 5050, settings.Port)
	assert.Equal(t, "/ws", settings.WSPath)
	assert.False(t, settings.Watch.Enabled)
	assert.Equal(t, 500, settings.Watch.DebounceMs)
	assert.Equal(t, 10, settings.Search.MaxResults)
	assert.True(t, settings.ServesStdio())
	assert.False(t, settings.ServesWS())
	assert.Equal(t, ":5050", settings.Addr())
}

func TestLoad_Flags(t *testing.T) {
	settings, err := load(t, "--mode", "both", "--port", "6060", "--host", "127.0.0.1", "--watch", "--prompts-dir", "/tmp/p")
	require.NoError(t, err)

	assert.Equal(t, ModeBoth, settings.Mode)
	assert.True(t, settings.ServesStdio())
	assert.True(t, settings.ServesWS())
	assert.Equal(t, "127.0.0.1:6060", settings.Addr())
	assert.True(t, settings.Watch.Enabled)
	assert.Equal(t, "/tmp/p", settings.PromptsDir)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("MCP_MODE", "ws")
	t.Setenv("MCP_PORT", "7070")
	t.Setenv("MCP_PROMPTS_DIR", "/srv/prompts")
	t.Setenv("MCP_LOG_LEVEL", "debug")

	settings, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, ModeWS, settings.Mode)
	assert.False(t, settings.ServesStdio())
	assert.Equal(t, 7070, settings.Port)
	assert.Equal(t, "/srv/prompts", settings.PromptsDir)
	assert.Equal(t, "debug", settings.LogLevel)
}

func TestLoad_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("MCP_MODE", "ws")

	settings, err := load(t, "--mode", "stdio")
	require.NoError(t, err)
	assert.Equal(t, ModeStdio, settings.Mode)
}

func TestLoad_EmptyModeDefaultsToStdio(t *testing.T) {
	t.Setenv("MCP_MODE", "")

	settings, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, ModeStdio, settings.Mode)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Settings)
		wantErr bool
	}{
		{name: "Valid", modify: func(s *Settings) {}},
		{name: "Unknown Mode", modify: func(s *Settings) { s.Mode = "http" }, wantErr: true},
		{name: "Missing Prompts Dir", modify: func(s *Settings) { s.PromptsDir = "" }, wantErr: true},
		{name: "Negative Port", modify: func(s *Settings) { s.Port = -1 }, wantErr: true},
		{name: "Port Too Large", modify: func(s *Settings) { s.Port = 70000 }, wantErr: true},
		{name: "Relative WS Path", modify: func(s *Settings) { s.WSPath = "ws" }, wantErr: true},
		{name: "Cert Without Key", modify: func(s *Settings) { s.CertFile = "cert.pem" }, wantErr: true},
		{name: "Cert And Key", modify: func(s *Settings) { s.CertFile = "cert.pem"; s.KeyFile = "key.pem" }},
		{name: "Bad Log Level", modify: func(s *Settings) { s.LogLevel = "loud" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.modify(&s)
			if err := s.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Settings.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSettings_Addr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{host: "", port: 5050, want: ":5050"},
		{host: "127.0.0.1", port: 6060, want: "127.0.0.1:6060"},
		{host: "::1", port: 5050, want: "[::1]:5050"},
		{host: "localhost", port: 0, want: "localhost:0"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			s := Defaults()
			s.Host = tt.host
			s.Port = tt.port
			assert.Equal(t, tt.want, s.Addr())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	l, err := ParseLogLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	l, err = ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)

	_, err = ParseLogLevel("nope")
	assert.Error(t, err)
}
