// Package config loads runtime settings from an optional TOML file and
// PROOFLINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type LanguageTool struct {
	URL           string   `toml:"url"`
	Language      string   `toml:"language"`
	Timeout       Duration `toml:"timeout"`
	DisabledRules []string `toml:"disabled_rules"`
	Level         string   `toml:"level"`
}

type Harper struct {
	// Command launches the worker. Empty means run the linter in process.
	Command []string `toml:"command"`
	Timeout Duration `toml:"timeout"`
}

type Analysis struct {
	Debounce Duration `toml:"debounce"`
	// Eager runs a pass as soon as a target is focused.
	Eager    bool     `toml:"eager"`
	MinChars int      `toml:"min_chars"`
	Timeout  Duration `toml:"timeout"`
}

type Overlay struct {
	RedrawDelay Duration `toml:"redraw_delay"`
}

type Bridge struct {
	Addr       string `toml:"addr"`
	CORSOrigin string `toml:"cors_origin"`
}

type Prefs struct {
	// Backend is "file" or "redis".
	Backend  string `toml:"backend"`
	Path     string `toml:"path"`
	RedisURL string `toml:"redis_url"`
}

type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type Config struct {
	LanguageTool LanguageTool `toml:"languagetool"`
	Harper       Harper       `toml:"harper"`
	Analysis     Analysis     `toml:"analysis"`
	Overlay      Overlay      `toml:"overlay"`
	Bridge       Bridge       `toml:"bridge"`
	Prefs        Prefs        `toml:"prefs"`
	Log          Log          `toml:"log"`
}

func Default() Config {
	return Config{
		LanguageTool: LanguageTool{
			URL:      "http://localhost:8081",
			Language: "en-US",
			Timeout:  Duration{5 * time.Second},
		},
		Harper: Harper{
			Timeout: Duration{5 * time.Second},
		},
		Analysis: Analysis{
			Debounce: Duration{1500 * time.Millisecond},
			Eager:    true,
			MinChars: 5,
			Timeout:  Duration{5 * time.Second},
		},
		Overlay: Overlay{
			RedrawDelay: Duration{120 * time.Millisecond},
		},
		Bridge: Bridge{
			Addr:       "127.0.0.1:8799",
			CORSOrigin: "*",
		},
		Prefs: Prefs{
			Backend:  "file",
			Path:     filepath.Join(configDir(), "prefs.yaml"),
			RedisURL: "redis://localhost:6379/0",
		},
		Log: Log{
			Level: "info",
		},
	}
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.toml")
}

func configDir() string {
	if dir := os.Getenv("PROOFLINE_CONFIG_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ".proofline"
	}
	return filepath.Join(base, "proofline")
}

// Load reads path over the defaults and applies environment overrides.
// An empty path reads DefaultPath when it exists.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, cfg.Validate()
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Prefs.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("config: unknown prefs backend %q", c.Prefs.Backend)
	}
	if c.Analysis.MinChars < 0 {
		return fmt.Errorf("config: analysis.min_chars must not be negative")
	}
	return nil
}

func applyEnv(c *Config) {
	c.LanguageTool.URL = getenv("PROOFLINE_LT_URL", c.LanguageTool.URL)
	c.LanguageTool.Language = getenv("PROOFLINE_LANGUAGE", c.LanguageTool.Language)
	c.LanguageTool.Timeout.Duration = getenvDuration("PROOFLINE_LT_TIMEOUT", c.LanguageTool.Timeout.Duration)
	c.LanguageTool.Level = getenv("PROOFLINE_LT_LEVEL", c.LanguageTool.Level)
	if cmd := getenv("PROOFLINE_HARPER_COMMAND", ""); cmd != "" {
		c.Harper.Command = strings.Fields(cmd)
	}
	c.Harper.Timeout.Duration = getenvDuration("PROOFLINE_HARPER_TIMEOUT", c.Harper.Timeout.Duration)
	c.Analysis.Debounce.Duration = getenvDuration("PROOFLINE_DEBOUNCE", c.Analysis.Debounce.Duration)
	c.Analysis.Eager = getenvBool("PROOFLINE_EAGER", c.Analysis.Eager)
	c.Analysis.MinChars = getenvInt("PROOFLINE_MIN_CHARS", c.Analysis.MinChars)
	c.Overlay.RedrawDelay.Duration = getenvDuration("PROOFLINE_REDRAW_DELAY", c.Overlay.RedrawDelay.Duration)
	c.Bridge.Addr = getenv("PROOFLINE_BRIDGE_ADDR", c.Bridge.Addr)
	c.Bridge.CORSOrigin = getenv("PROOFLINE_CORS_ORIGIN", c.Bridge.CORSOrigin)
	c.Prefs.Backend = getenv("PROOFLINE_PREFS_BACKEND", c.Prefs.Backend)
	c.Prefs.Path = getenv("PROOFLINE_PREFS_PATH", c.Prefs.Path)
	c.Prefs.RedisURL = getenv("PROOFLINE_REDIS_URL", c.Prefs.RedisURL)
	c.Log.Level = getenv("PROOFLINE_LOG_LEVEL", c.Log.Level)
	c.Log.File = getenv("PROOFLINE_LOG_FILE", c.Log.File)
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
