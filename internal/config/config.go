// Package config loads the host configuration from a yaml file with
// defaults and environment expansion for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the top-level host configuration.
type Config struct {
	Server    ServerConfig `yaml:"server"`
	ConfigDir string       `yaml:"config_dir"`
	LogLevel  string       `yaml:"log_level"`

	// AutoReload reloads a loaded script when its file changes on disk.
	AutoReload bool `yaml:"auto_reload"`
}

// ServerConfig describes the IRC server connection.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	Port     int    `yaml:"port"`
	UseTLS   bool   `yaml:"tls"`
	Nick     string `yaml:"nick"`
	Password string `yaml:"password"`
	SASL     bool   `yaml:"sasl"`
}

// envVarPattern matches ${VAR_NAME} references in credential fields.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	dir := ""
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", "hookstorm")
	}
	return Config{
		Server: ServerConfig{
			Addr: "irc.libera.chat",
			Nick: "hookstorm",
		},
		ConfigDir: dir,
		LogLevel:  "info",
	}
}

// Load reads path and returns the merged configuration. A missing file
// yields defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Server.Password = expandEnvVars(cfg.Server.Password)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = Defaults().ConfigDir
	}
	return cfg, nil
}

// AddonDir returns the directory scanned for scripts at startup.
func (c Config) AddonDir() string {
	return filepath.Join(c.ConfigDir, "addons")
}
