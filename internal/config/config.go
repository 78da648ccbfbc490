package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Transport modes
const (
	ModeStdio = "stdio"
	ModeWS    = "ws"
	ModeBoth  = "both"
)

// Configuration keys
const (
	KeyMode             = "mode"
	KeyPromptsDir       = "prompts-dir"
	KeyHost             = "host"
	KeyPort             = "port"
	KeyWSPath           = "ws-path"
	KeyCertFile         = "cert-file"
	KeyKeyFile          = "key-file"
	KeyWatch            = "watch"
	KeyWatchDebounce    = "watch-debounce"
	KeyLogLevel         = "log-level"
	KeySearchMaxResults = "search-max-results"
)

// EnvPrefix is prepended to every environment variable, e.g. MCP_MODE
const EnvPrefix = "MCP"

// Settings holds the process configuration
type Settings struct {
	Mode       string
	PromptsDir string
	Host       string
	Port       int
	WSPath     string
	CertFile   string
	KeyFile    string
	Watch      WatchSettings
	LogLevel   string
	Search     SearchSettings
}

// WatchSettings controls automatic reloads on file changes
type WatchSettings struct {
	Enabled    bool
	DebounceMs int
}

// SearchSettings controls the search_prompts tool
type SearchSettings struct {
	MaxResults int
}

// Defaults returns the settings used when nothing is configured
func Defaults() Settings {
	return Settings{
		Mode:       ModeStdio,
		PromptsDir: "./prompts",
		Port:       5050,
		WSPath:     "/ws",
		Watch:      WatchSettings{DebounceMs: 500},
		LogLevel:   "info",
		Search:     SearchSettings{MaxResults: 10},
	}
}

// RegisterFlags declares the command line flags for every setting
func RegisterFlags(flags *pflag.FlagSet) {
	d := Defaults()
	flags.String(KeyMode, d.Mode, "Transport mode: stdio, ws or both")
	flags.String(KeyPromptsDir, d.PromptsDir, "Directory containing prompt definition files")
	flags.String(KeyHost, d.Host, "WebSocket listen host")
	flags.Int(KeyPort, d.Port, "WebSocket listen port")
	flags.String(KeyWSPath, d.WSPath, "WebSocket endpoint path")
	flags.String(KeyCertFile, "", "TLS certificate file for the WebSocket server")
	flags.String(KeyKeyFile, "", "TLS key file for the WebSocket server")
	flags.Bool(KeyWatch, d.Watch.Enabled, "Reload prompts when definition files change")
	flags.Int(KeyWatchDebounce, d.Watch.DebounceMs, "Quiet period in milliseconds before a watch-triggered reload")
	flags.String(KeyLogLevel, d.LogLevel, "Log level: debug, info, warn or error")
	flags.Int(KeySearchMaxResults, d.Search.MaxResults, "Maximum number of search_prompts results")
}

// NewViper creates a viper instance bound to the flags and to MCP_* environment variables
func NewViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}
	return v, nil
}

// Load reads the settings from v and validates them
func Load(v *viper.Viper) (*Settings, error) {
	d := Defaults()
	v.SetDefault(KeyMode, d.Mode)
	v.SetDefault(KeyPromptsDir, d.PromptsDir)
	v.SetDefault(KeyPort, d.Port)
	v.SetDefault(KeyWSPath, d.WSPath)
	v.SetDefault(KeyWatchDebounce, d.Watch.DebounceMs)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeySearchMaxResults, d.Search.MaxResults)

	settings := &Settings{
		Mode:       strings.ToLower(strings.TrimSpace(v.GetString(KeyMode))),
		PromptsDir: v.GetString(KeyPromptsDir),
		Host:       v.GetString(KeyHost),
		Port:       v.GetInt(KeyPort),
		WSPath:     v.GetString(KeyWSPath),
		CertFile:   v.GetString(KeyCertFile),
		KeyFile:    v.GetString(KeyKeyFile),
		Watch: WatchSettings{
			Enabled:    v.GetBool(KeyWatch),
			DebounceMs: v.GetInt(KeyWatchDebounce),
		},
		LogLevel: v.GetString(KeyLogLevel),
		Search: SearchSettings{
			MaxResults: v.GetInt(KeySearchMaxResults),
		},
	}

	if settings.Mode == "" {
		settings.Mode = ModeStdio
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks the settings for consistency
func (s *Settings) Validate() error {
	switch s.Mode {
	case ModeStdio, ModeWS, ModeBoth:
	default:
		return fmt.Errorf("unknown mode %q (expected %s, %s or %s)", s.Mode, ModeStdio, ModeWS, ModeBoth)
	}

	if s.PromptsDir == "" {
		return errors.New("prompts directory is required")
	}
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port: %d", s.Port)
	}
	if !strings.HasPrefix(s.WSPath, "/") {
		return fmt.Errorf("websocket path must start with '/': %q", s.WSPath)
	}
	if (s.CertFile == "") != (s.KeyFile == "") {
		return errors.New("cert-file and key-file must be set together")
	}
	if _, err := ParseLogLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// ServesStdio reports whether the stdio transport runs
func (s *Settings) ServesStdio() bool {
	return s.Mode == ModeStdio || s.Mode == ModeBoth
}

// ServesWS reports whether the WebSocket transport runs
func (s *Settings) ServesWS() bool {
	return s.Mode == ModeWS || s.Mode == ModeBoth
}

// Addr returns the WebSocket listen address
func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ParseLogLevel maps a level name to its slog level
func ParseLogLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}
