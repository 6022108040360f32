package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// DefaultFile is read from the working directory when --config is not given
	DefaultFile = "bellman-viz.toml"

	envPrefix = "BELLMAN_VIZ_"
)

// Config holds all configuration for the application
type Config struct {
	WebMode       bool   `koanf:"web"`
	Port          int    `koanf:"port" validate:"min=1,max=65535"`
	Nodes         string `koanf:"nodes"` // Raw node count; invalid values fall back to a random count
	Seed          uint64 `koanf:"seed"`  // 0 picks a random seed
	Source        string `koanf:"source"`
	Target        string `koanf:"target"`
	Speed         int    `koanf:"speed" validate:"min=1,max=10"`
	MarkUnbounded bool   `koanf:"mark-unbounded"`
	MaxAttempts   int    `koanf:"max-attempts" validate:"min=0"`
	Verbosity     string `koanf:"verbosity" validate:"omitempty,oneof=trace debug info warn warning error"`
	VerboseCnt    int    `koanf:"verbose" validate:"min=0"`
	JSONLogs      bool   `koanf:"json-logs"`
	Watch         bool   `koanf:"watch"`
	ConfigFile    string `koanf:"config"`
	OpenBrowser   bool   `koanf:"open"`
}

// Defaults returns the built-in configuration values
func Defaults() map[string]any {
	return map[string]any{
		"web":            false,
		"port":           8080,
		"nodes":          "7",
		"seed":           0,
		"source":         "",
		"target":         "",
		"speed":          5,
		"mark-unbounded": false,
		"max-attempts":   0,
		"verbosity":      "",
		"verbose":        0,
		"json-logs":      false,
		"watch":          false,
		"config":         "",
		"open":           false,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional). An explicit --config must exist.
	path, explicit := configPath(f)
	if err := loadFile(k, path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// 3. Environment Variables
	// Prefix: BELLMAN_VIZ_ (e.g., BELLMAN_VIZ_MARK_UNBOUNDED=true)
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigFile = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func configPath(f *pflag.FlagSet) (string, bool) {
	if f != nil {
		if flag := f.Lookup("config"); flag != nil && flag.Value.String() != "" {
			return flag.Value.String(), true
		}
	}
	if p := os.Getenv(envPrefix + "CONFIG"); p != "" {
		return p, true
	}
	return DefaultFile, false
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return k.Load(file.Provider(path), yaml.Parser())
	default:
		return k.Load(file.Provider(path), toml.Parser())
	}
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]any
}

func makeMapProvider(m map[string]any) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]any, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
