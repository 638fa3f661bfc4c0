// Package config loads client configuration for condarun.
//
// Configuration is loaded from a single file named by:
//   - the CONDARUN_CONFIG environment variable, or
//   - an explicit path (the CLI's --config flag)
//
// Files ending in .json or .jsonc are read as JSON with comments and
// trailing commas allowed; anything else is read as YAML. Missing fields
// take the values from [Default].
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "CONDARUN_CONFIG"

// Transport mode names. The loader does not restrict Mode to these: an
// unknown mode is reported when a transport is selected.
const (
	ModeLocal  = "local"
	ModeRPC    = "rpc"
	ModeREST   = "rest"
	ModeSocket = "socket"
)

// Config is the client configuration.
type Config struct {
	// Mode selects the transport: local, rpc, rest or socket.
	Mode string `yaml:"mode" json:"mode"`

	// Executable is the package manager binary for local mode.
	// Default: conda
	Executable string `yaml:"executable" json:"executable"`

	// Dir is the working directory for spawned processes.
	Dir string `yaml:"dir" json:"dir"`

	// Env holds extra environment variables for spawned processes.
	Env map[string]string `yaml:"env" json:"env"`

	// APIRoot is the absolute URL of the HTTP API root for rpc and rest
	// modes, e.g. http://localhost:8080/api.
	APIRoot string `yaml:"api_root" json:"api_root" validate:"omitempty,url"`

	// SocketURL is the WebSocket endpoint for progress streaming, e.g.
	// ws://localhost:8080/api_ws/. Required in socket mode; optional in
	// rpc and rest modes, where it carries commands that ask for progress.
	SocketURL string `yaml:"socket_url" json:"socket_url" validate:"omitempty,url"`

	// LogLevel is one of debug, info, warn, error. Default: warn
	LogLevel string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Mode:       ModeLocal,
		Executable: "conda",
		LogLevel:   "warn",
	}
}

var validate = validator.New()

// Load reads, defaults and validates the config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv loads the file named by CONDARUN_CONFIG, or returns Default
// when the variable is unset.
func FromEnv() (Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes config data. ext selects the format: ".json" and ".jsonc"
// are JSON with comments, anything else is YAML.
func Parse(data []byte, ext string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing YAML: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field formats. It does not check Mode.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s %q (%s)", fe.Field(), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return err
	}
	return nil
}

// Level returns the slog level for LogLevel.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
