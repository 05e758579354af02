// Package config loads runtime settings from BRIEF_* environment variables
// and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "BRIEF"

const (
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
)

type Config struct {
	SessionStore  string        `mapstructure:"session_store"`
	SessionTable  string        `mapstructure:"session_table"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	MaxSessions   int           `mapstructure:"max_sessions"`
	ParamPrefix   string        `mapstructure:"param_prefix"`
	JobsAPIURL    string        `mapstructure:"jobs_api_url"`
	JobsTimeout   time.Duration `mapstructure:"jobs_timeout"`
	StudioAppURL  string        `mapstructure:"studio_app_url"`
	ExpressAppURL string        `mapstructure:"express_app_url"`
	ExpressHosts  []string      `mapstructure:"express_hosts"`
	FlagsTTL      time.Duration `mapstructure:"flags_ttl"`
	MaxTextLength int           `mapstructure:"max_text_length"`
	MaxQuestions  int           `mapstructure:"max_questions"`
	LogLevel      string        `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("session_store", StoreDynamoDB)
	v.SetDefault("session_table", "")
	v.SetDefault("session_ttl", 2*time.Hour)
	v.SetDefault("max_sessions", 10000)
	v.SetDefault("param_prefix", "")
	v.SetDefault("jobs_api_url", "")
	v.SetDefault("jobs_timeout", 10*time.Second)
	v.SetDefault("studio_app_url", "")
	v.SetDefault("express_app_url", "")
	v.SetDefault("express_hosts", []string{})
	v.SetDefault("flags_ttl", time.Minute)
	v.SetDefault("max_text_length", 2000)
	v.SetDefault("max_questions", 5)
	v.SetDefault("log_level", "info")
}

// Override pins a key regardless of environment or file.
type Override struct {
	Key   string
	Value any
}

// Load reads configuration. Overrides win over environment variables, which
// win over the file; an empty path skips the file.
func Load(path string, overrides ...Override) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	for _, o := range overrides {
		v.Set(o.Key, o.Value)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.SessionStore = strings.ToLower(strings.TrimSpace(c.SessionStore))
	c.ParamPrefix = strings.TrimRight(strings.TrimSpace(c.ParamPrefix), "/")
	var hosts []string
	for _, h := range c.ExpressHosts {
		// a single env value arrives unsplit when it has no commas
		for _, part := range strings.Split(h, ",") {
			if part = strings.TrimSpace(part); part != "" {
				hosts = append(hosts, part)
			}
		}
	}
	c.ExpressHosts = hosts
}

// Validate checks settings every entrypoint depends on.
func (c *Config) Validate() error {
	switch c.SessionStore {
	case StoreMemory:
	case StoreDynamoDB:
		if c.SessionTable == "" {
			return errors.New("config: session_table is required for the dynamodb store")
		}
	default:
		return fmt.Errorf("config: unknown session_store %q", c.SessionStore)
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: session_ttl must be positive")
	}
	if c.MaxTextLength <= 0 {
		return errors.New("config: max_text_length must be positive")
	}
	return nil
}

// SlogLevel parses LogLevel, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
