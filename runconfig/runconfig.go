// Package runconfig loads cmd/egraph's run configuration: which
// language to use, saturation limits, where the rule cache lives, and
// the log level — from built-in defaults, a YAML file, or environment
// variables, in that order of increasing precedence.
package runconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration for one cmd/egraph run.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Rules   RulesConfig   `yaml:"rules"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig controls the e-graph itself.
type EngineConfig struct {
	// Language names the lang.Language to run against (e.g. "lambda").
	Language string `yaml:"language"`
	// AllowShrink mirrors egraph.New's allowShrink argument.
	AllowShrink bool `yaml:"allow_shrink"`
	// MaxRounds bounds pattern.RunRewrites' saturation loop.
	MaxRounds int `yaml:"max_rounds"`
}

// RulesConfig controls where rewrite rules come from.
type RulesConfig struct {
	// CacheDir is the rulecache.Cache's BadgerDB directory.
	CacheDir string `yaml:"cache_dir"`
	// Defs is the rule set itself: a {name, lhs, rhs} triple per rule,
	// compiled (and cached) against Engine.Language on startup.
	Defs []RuleDef `yaml:"defs"`
}

// RuleDef is one named rewrite rule's textual LHS/RHS source, as loaded
// from a run configuration's "rules.defs" list.
type RuleDef struct {
	Name string `yaml:"name"`
	LHS  string `yaml:"lhs"`
	RHS  string `yaml:"rhs"`
}

// LoggingConfig controls internal/xlog's verbosity.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `yaml:"level"`
}

// DefaultConfig returns sane built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Language:    "lambda",
			AllowShrink: true,
			MaxRounds:   100,
		},
		Rules: RulesConfig{
			CacheDir: "./data/rules",
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

const envPrefix = "SLOTTED_EGRAPH_"

// LoadFromEnv loads configuration from environment variables, starting
// from DefaultConfig.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()
	applyEnv(cfg)
	return cfg
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runconfig: reading %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("runconfig: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault loads path, falling back to defaults if it cannot
// be read or parsed.
func LoadConfigOrDefault(path string) *Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// LoadFromEnvOrFile loads path (or defaults, if path is empty or
// unreadable) and then lets environment variables override it —
// environment variables always win, matching the teacher's own
// apoc.LoadFromEnvOrFile precedence.
func LoadFromEnvOrFile(path string) *Config {
	var cfg *Config
	if path != "" {
		cfg = LoadConfigOrDefault(path)
	} else {
		cfg = DefaultConfig()
	}
	applyEnv(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envPrefix + "LANGUAGE"); v != "" {
		cfg.Engine.Language = v
	}
	if v := os.Getenv(envPrefix + "ALLOW_SHRINK"); v != "" {
		cfg.Engine.AllowShrink = parseBool(v, cfg.Engine.AllowShrink)
	}
	if v := os.Getenv(envPrefix + "MAX_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.MaxRounds = n
		}
	}
	if v := os.Getenv(envPrefix + "RULES_CACHE_DIR"); v != "" {
		cfg.Rules.CacheDir = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func parseBool(s string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultVal
	}
}

// Validate checks the configuration for obviously broken values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Engine.Language) == "" {
		return fmt.Errorf("runconfig: engine.language must not be empty")
	}
	if c.Engine.MaxRounds <= 0 {
		return fmt.Errorf("runconfig: engine.max_rounds must be positive, got %d", c.Engine.MaxRounds)
	}
	if strings.TrimSpace(c.Rules.CacheDir) == "" {
		return fmt.Errorf("runconfig: rules.cache_dir must not be empty")
	}
	switch strings.ToUpper(c.Logging.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("runconfig: logging.level must be one of DEBUG/INFO/WARN/ERROR, got %q", c.Logging.Level)
	}
	return nil
}
