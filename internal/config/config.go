// Package config loads targetdiff settings from the environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/raphaelgruber/targetdiff/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration file has unusable values.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration values.
type Config struct {
	// Logging
	LogFile  string
	LogLevel slog.Level

	// Concurrency bounds parallel file reads.
	Concurrency int

	// ConfigFile is the YAML file to merge, if any.
	ConfigFile string

	// Profiles overrides the built-in kind profiles.
	Profiles map[models.DeclarationKind]models.KindProfile
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		LogFile:     getEnv("TARGETDIFF_LOG_FILE", ""),
		LogLevel:    parseLogLevel(getEnv("TARGETDIFF_LOG_LEVEL", "INFO")),
		Concurrency: getEnvInt("TARGETDIFF_CONCURRENCY", 8),
		ConfigFile:  getEnv("TARGETDIFF_CONFIG", ""),
	}
}

// fileConfig is the YAML file layout.
type fileConfig struct {
	LogFile     string                  `yaml:"log_file"`
	LogLevel    string                  `yaml:"log_level"`
	Concurrency int                     `yaml:"concurrency"`
	Kinds       map[string]kindOverride `yaml:"kinds"`
}

// kindOverride replaces the file-selection and naming rules of one kind.
type kindOverride struct {
	Extension    *string  `yaml:"extension"`
	FilePrefixes []string `yaml:"file_prefixes"`
	KeyPattern   *string  `yaml:"key_pattern"`
	NamePrefix   *string  `yaml:"name_prefix"`
}

// LoadFile merges the YAML file at path into cfg. Values set in the file win.
func LoadFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Merge(cfg, data)
}

// Merge applies YAML configuration data to cfg.
func Merge(cfg Config, data []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("%w: parse yaml: %v", ErrInvalidConfig, err)
	}

	if fc.LogFile != "" {
		cfg.LogFile = fc.LogFile
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}
	if fc.Concurrency < 0 {
		return cfg, fmt.Errorf("%w: concurrency must not be negative", ErrInvalidConfig)
	}
	if fc.Concurrency > 0 {
		cfg.Concurrency = fc.Concurrency
	}

	for name, override := range fc.Kinds {
		kind, err := models.ParseKind(name)
		if err != nil {
			return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		base, ok := cfg.Profiles[kind]
		if !ok {
			base = models.MustProfile(kind)
		}
		profile, err := override.apply(base)
		if err != nil {
			return cfg, fmt.Errorf("%w: kinds.%s: %v", ErrInvalidConfig, name, err)
		}
		if cfg.Profiles == nil {
			cfg.Profiles = make(map[models.DeclarationKind]models.KindProfile)
		}
		cfg.Profiles[kind] = profile
	}
	return cfg, nil
}

func (o kindOverride) apply(p models.KindProfile) (models.KindProfile, error) {
	if o.Extension != nil {
		ext := *o.Extension
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		p.Extension = ext
	}
	if o.FilePrefixes != nil {
		p.FilePrefixes = o.FilePrefixes
	}
	if o.NamePrefix != nil {
		p.NamePrefix = *o.NamePrefix
	}
	if o.KeyPattern != nil {
		re, err := regexp.Compile(*o.KeyPattern)
		if err != nil {
			return p, fmt.Errorf("key_pattern: %w", err)
		}
		if re.NumSubexp() != 1 {
			return p, fmt.Errorf("key_pattern must have exactly one capture group, has %d", re.NumSubexp())
		}
		p.KeyPattern = re
		p.KeyStrategy = models.KeyFromPath
	}
	return p, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
