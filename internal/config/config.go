// Package config loads p4form settings from a YAML file and the standard
// Perforce environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load. They override the file.
const (
	EnvPort   = "P4PORT"
	EnvUser   = "P4USER"
	EnvClient = "P4CLIENT"
	EnvBinary = "P4BIN"
	EnvJobs   = "P4FORM_JOBS"
)

// ErrInvalid wraps every validation failure reported by Config.Validate.
var ErrInvalid = errors.New("config: invalid")

// Config holds everything the command line needs to build its collaborators.
type Config struct {
	Binary   string `yaml:"binary"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Client   string `yaml:"client"`
	Rules    string `yaml:"rules"`
	Fixture  string `yaml:"fixture"`
	Format   string `yaml:"format"`
	Jobs     int    `yaml:"jobs"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Binary:   "p4",
		Format:   "text",
		Jobs:     4,
		LogLevel: "info",
	}
}

// Load reads path (skipped when empty) on top of Default and then applies
// the environment.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an injectable environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if getenv != nil {
		if err := cfg.applyEnv(getenv); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	overlay := map[string]*string{
		EnvPort:   &c.Port,
		EnvUser:   &c.User,
		EnvClient: &c.Client,
		EnvBinary: &c.Binary,
	}
	for key, target := range overlay {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*target = v
		}
	}
	if v := strings.TrimSpace(getenv(EnvJobs)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvJobs, v, err)
		}
		c.Jobs = n
	}
	return nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Binary) == "" && strings.TrimSpace(c.Fixture) == "" {
		errs = append(errs, fmt.Errorf("%w: binary is empty and no fixture is set", ErrInvalid))
	}
	if c.Jobs < 1 {
		errs = append(errs, fmt.Errorf("%w: jobs must be at least 1, got %d", ErrInvalid, c.Jobs))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.LogLevel))
	}
	return errors.Join(errs...)
}
