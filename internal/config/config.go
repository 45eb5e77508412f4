// Package config loads client settings from defaults, TOML files, a .env
// file, the environment and command-line overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultAPIURL         = "http://localhost:8000"
	DefaultTimeout        = 10 * time.Second
	DefaultLogLevel       = "warn"
	DefaultLogFormat      = "text"
	DefaultCategoryColors = ColorsStable
	DefaultTheme          = "classic"

	ConfigFileName  = "config.toml"
	ProjectFileName = "carrot.toml"
	EnvFileName     = ".env"
)

// Category color modes.
const (
	ColorsStable  = "stable"
	ColorsShuffle = "shuffle"
)

// DefaultPalette is cycled over categories.
var DefaultPalette = []string{"#FF8A65", "#FFD54F", "#81C784", "#4FC3F7", "#BA68C8", "#F06292", "#A1887F"}

// Config is the resolved client configuration.
type Config struct {
	APIURL         string        `toml:"api_url"`
	Timeout        time.Duration `toml:"timeout"`
	Home           string        `toml:"home"`
	LogLevel       string        `toml:"log_level"`
	LogFormat      string        `toml:"log_format"`
	CategoryColors string        `toml:"category_colors"`
	Palette        []string      `toml:"palette"`
	Theme          string        `toml:"theme"`

	// Token comes from CARROT_TOKEN only; it is never read from a file.
	Token string `toml:"-"`
}

// Overrides are command-line values; empty fields leave the config alone.
type Overrides struct {
	APIURL    string
	Timeout   time.Duration
	Home      string
	LogLevel  string
	LogFormat string
	Theme     string
}

// Sources tells Load where to look. Zero values pick the standard places.
type Sources struct {
	UserFile    string // default <home>/config.toml
	ProjectFile string // default ./carrot.toml
	EnvFile     string // default ./.env
	Getenv      func(string) string
}

func setDefaults(cfg *Config) {
	cfg.APIURL = DefaultAPIURL
	cfg.Timeout = DefaultTimeout
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.CategoryColors = DefaultCategoryColors
	cfg.Palette = append([]string(nil), DefaultPalette...)
	cfg.Theme = DefaultTheme
}

// Load resolves the configuration.
func Load(src Sources, ov Overrides) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	env := envLookup(src)

	// The home dir decides where the user file lives, so resolve it first.
	cfg.Home = firstNonEmpty(ov.Home, env("CARROT_HOME"))
	homeFixed := cfg.Home != ""
	if cfg.Home == "" {
		h, err := defaultHome()
		if err != nil {
			return nil, err
		}
		cfg.Home = h
	}

	userFile := src.UserFile
	if userFile == "" {
		userFile = filepath.Join(cfg.Home, ConfigFileName)
	}
	projectFile := src.ProjectFile
	if projectFile == "" {
		projectFile = ProjectFileName
	}
	for _, p := range []string{userFile, projectFile} {
		if err := loadConfigFile(cfg, p, homeFixed); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", p, err)
		}
	}

	if err := loadFromEnv(cfg, env); err != nil {
		return nil, err
	}
	applyOverrides(cfg, ov)

	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile decodes path over cfg; a missing file is not an error.
// A home set by flag or env outranks the file's.
func loadConfigFile(cfg *Config, path string, keepHome bool) error {
	home := cfg.Home
	_, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if keepHome || cfg.Home == "" {
		cfg.Home = home
	}
	return err
}

// envLookup reads the process environment first and the .env file second.
func envLookup(src Sources) func(string) string {
	getenv := src.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	envFile := src.EnvFile
	if envFile == "" {
		envFile = EnvFileName
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		dotenv = map[string]string{}
	}
	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
}

func loadFromEnv(cfg *Config, env func(string) string) error {
	if v := env("CARROT_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := env("CARROT_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := env("CARROT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := env("CARROT_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := env("CARROT_CATEGORY_COLORS"); v != "" {
		cfg.CategoryColors = v
	}
	if v := env("CARROT_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := env("CARROT_TIMEOUT"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("CARROT_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	return nil
}

func applyOverrides(cfg *Config, ov Overrides) {
	if ov.APIURL != "" {
		cfg.APIURL = ov.APIURL
	}
	if ov.Timeout > 0 {
		cfg.Timeout = ov.Timeout
	}
	if ov.LogLevel != "" {
		cfg.LogLevel = ov.LogLevel
	}
	if ov.LogFormat != "" {
		cfg.LogFormat = ov.LogFormat
	}
	if ov.Theme != "" {
		cfg.Theme = ov.Theme
	}
}

func finalize(cfg *Config) error {
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_url %q", cfg.APIURL)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	switch cfg.CategoryColors {
	case ColorsStable, ColorsShuffle:
	default:
		return fmt.Errorf("category_colors must be %q or %q, got %q", ColorsStable, ColorsShuffle, cfg.CategoryColors)
	}
	if len(cfg.Palette) == 0 {
		cfg.Palette = append([]string(nil), DefaultPalette...)
	}
	cfg.Home = expandPath(cfg.Home)
	return nil
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func defaultHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".carrot"), nil
}

func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
