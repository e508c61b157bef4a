// Package config loads landbook settings from defaults, an optional YAML
// file and LANDBOOK_* environment variables, in that order of precedence
// (later wins). Command-line flags are applied on top by the binaries.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/warp/landbook/registry"
)

// Config captures everything the server and CLI need to start.
type Config struct {
	Addr           string   `yaml:"addr"`
	DBPath         string   `yaml:"db"`
	Locale         string   `yaml:"locale"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"` // "text" | "json"
	AllowedOrigins []string `yaml:"allowed_origins"`
	Metrics        bool     `yaml:"metrics"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:           ":8080",
		DBPath:         "landbook.db",
		Locale:         "en-US",
		LogLevel:       "info",
		LogFormat:      "text",
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		Metrics:        true,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("LANDBOOK_ADDR"); ok && v != "" {
		c.Addr = v
	}
	if v, ok := lookup("LANDBOOK_DB"); ok && v != "" {
		c.DBPath = v
	}
	if v, ok := lookup("LANDBOOK_LOCALE"); ok && v != "" {
		c.Locale = v
	}
	if v, ok := lookup("LANDBOOK_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("LANDBOOK_LOG_FORMAT"); ok && v != "" {
		c.LogFormat = v
	}
	if v, ok := lookup("LANDBOOK_ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("LANDBOOK_METRICS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LANDBOOK_METRICS: %w", err)
		}
		c.Metrics = b
	}
	return nil
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: must be text or json", c.LogFormat))
	}
	if _, err := c.LocaleTag(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// LocaleTag parses Locale.
func (c Config) LocaleTag() (language.Tag, error) {
	return registry.ParseLocale(c.Locale)
}

// Logger builds the slog logger described by LogLevel and LogFormat.
func (c Config) Logger() *slog.Logger {
	level, _ := c.Level()
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
