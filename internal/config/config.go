// Package config loads scanner configuration from a YAML file with
// environment-variable overrides. All values are read-only inputs to the
// plugin subsystem.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the scanner configuration.
type Config struct {
	// PluginsDir is the folder holding plugin scripts
	PluginsDir string `yaml:"plugins_dir"`

	// CachePath is the metadata cache database file
	CachePath string `yaml:"cache_path"`

	// Interpreter is the external script interpreter binary
	Interpreter string `yaml:"interpreter"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// NoSignatureCheck treats every script as signed and trusted
	NoSignatureCheck bool `yaml:"no_signature_check"`

	// BeNice lowers execution process priority
	BeNice bool `yaml:"be_nice"`

	// NiceIncrement is how much the niceness is raised when BeNice is set
	NiceIncrement int `yaml:"nice_increment"`

	// DropPrivileges reduces privileges before executing plugins
	DropPrivileges bool `yaml:"drop_privileges"`

	// DropPrivilegesUser selects the drop target, "" for the default
	DropPrivilegesUser string `yaml:"drop_privileges_user"`

	// DropPrivilegesStrict aborts an execution when a required privilege drop
	// fails; the default preserves the historical fail-open behavior
	DropPrivilegesStrict bool `yaml:"drop_privileges_strict"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PluginsDir:    "./plugins",
		CachePath:     "kestrel-cache.db",
		Interpreter:   "nasl",
		LogLevel:      "info",
		NiceIncrement: 5,
	}
}

// Load reads configuration from path, falling back to KESTREL_CONFIG and then
// to kestrel.yaml. A missing file yields defaults; environment variables
// override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("KESTREL_CONFIG")
		if path == "" {
			path = "kestrel.yaml"
		}
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envString("KESTREL_PLUGINS_DIR", &cfg.PluginsDir)
	envString("KESTREL_CACHE_PATH", &cfg.CachePath)
	envString("KESTREL_INTERPRETER", &cfg.Interpreter)
	envString("KESTREL_LOG_LEVEL", &cfg.LogLevel)
	envBool("KESTREL_NO_SIGNATURE_CHECK", &cfg.NoSignatureCheck)
	envBool("KESTREL_BE_NICE", &cfg.BeNice)
	envInt("KESTREL_NICE_INCREMENT", &cfg.NiceIncrement)
	envBool("KESTREL_DROP_PRIVILEGES", &cfg.DropPrivileges)
	envString("KESTREL_DROP_PRIVILEGES_USER", &cfg.DropPrivilegesUser)
	envBool("KESTREL_DROP_PRIVILEGES_STRICT", &cfg.DropPrivilegesStrict)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}
