package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/marcelocantos/dsh/internal/ipc"
	"github.com/marcelocantos/dsh/internal/rules"
)

const (
	DefaultPrompt     = "dsh4> "
	DefaultMaxRequest = 64 * 1024
)

// Config holds the global dsh configuration.
type Config struct {
	Shell  ShellConfig  `yaml:"shell"`
	Server ServerConfig `yaml:"server"`
	Audit  AuditConfig  `yaml:"audit"`
	Log    LogConfig    `yaml:"log"`
	Guard  GuardConfig  `yaml:"guard"`
}

// ShellConfig controls the interactive prompt.
type ShellConfig struct {
	Prompt      string `yaml:"prompt" validate:"required"`
	HistoryFile string `yaml:"history_file"`
	Color       bool   `yaml:"color"`
}

// ServerConfig controls remote mode.
type ServerConfig struct {
	Interface  string `yaml:"interface" validate:"required"`
	Port       int    `yaml:"port" validate:"gte=1,lte=65535"`
	Threaded   bool   `yaml:"threaded"`
	PidFile    string `yaml:"pid_file"`
	OutputRate int64  `yaml:"output_rate" validate:"gte=0"` // bytes per second, 0 = unlimited
	MaxRequest int    `yaml:"max_request" validate:"gte=1"`
}

// AuditConfig controls the pipeline audit log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// LogConfig controls operational logging.
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// GuardConfig controls the pre-execution command guard.
type GuardConfig struct {
	Enabled bool                               `yaml:"enabled"`
	Rules   map[string]rules.CommandRuleConfig `yaml:"rules"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Shell: ShellConfig{
			Prompt:      DefaultPrompt,
			HistoryFile: filepath.Join(home, ".local", "share", "dsh", "history"),
			Color:       true,
		},
		Server: ServerConfig{
			Interface:  ipc.DefaultServerInterface,
			Port:       ipc.DefaultPort,
			MaxRequest: DefaultMaxRequest,
		},
		Audit: AuditConfig{
			Enabled: false,
			Path:    filepath.Join(home, ".local", "share", "dsh", "audit.jsonl"),
		},
		Log: LogConfig{
			Level: "warn",
		},
		Guard: GuardConfig{
			Enabled: true,
		},
	}
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dsh", "config.yaml")
}

// Load reads the config from the standard location.
// If the file doesn't exist, returns the default config.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path on the OS filesystem.
func LoadFrom(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads and validates the config at path on fsys. A missing file
// yields the defaults.
func LoadFs(fsys afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Shell.HistoryFile = expandHome(cfg.Shell.HistoryFile)
	cfg.Server.PidFile = expandHome(cfg.Server.PidFile)
	cfg.Audit.Path = expandHome(cfg.Audit.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints, naming fields by their YAML keys.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate.Struct(c)
}

// Address returns the server's listen address.
func (c *Config) Address() string {
	return ipc.ServerAddress(c.Server.Interface, c.Server.Port)
}

// GuardRules compiles the guard, or returns nil when it is disabled.
func (c *Config) GuardRules() *rules.RuleSet {
	if !c.Guard.Enabled {
		return nil
	}
	return rules.Compile(c.Guard.Rules)
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, path[1:])
}
