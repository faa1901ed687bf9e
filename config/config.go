/*
Package config wraps viper to load server configuration.

SOURCES (highest precedence first):
  1. Environment variables with the PROMO_ prefix, e.g. PROMO_PORT=9090
  2. An optional config file (YAML, JSON or anything else viper reads by
     extension)
  3. Built-in defaults

KEYS:
  port               HTTP listen port (8080)
  environment        Reported on every log line ("local")
  log_level          logrus level name ("info")
  log_file           Optional log file; empty logs to stderr
  policy_file        JSON policy document; empty uses the built-in tables
  session_ttl        Lifetime of a stored roster result (30m); a bare
                     integer is seconds, minimum 1s
  workers            Evaluation workers per roster; 0 = GOMAXPROCS
  cors_origins       Allowed browser origins, comma separated in env vars
  shutdown_timeout   Grace period for in-flight requests (10s); a bare
                     integer is seconds

The loaded Config is immutable for the lifetime of the process.
*/
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved server configuration.
type Config struct {
	Port            int
	Environment     string
	LogLevel        string
	LogFile         string
	PolicyFile      string
	SessionTTL      time.Duration
	Workers         int
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Addr is the listen address for Port.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func setup(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("environment", "local")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("policy_file", "")
	v.SetDefault("session_ttl", 30*time.Minute)
	v.SetDefault("workers", 0)
	v.SetDefault("cors_origins", []string{"http://localhost:5173", "http://localhost:5174"})
	v.SetDefault("shutdown_timeout", 10*time.Second)

	v.SetEnvPrefix("PROMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return v, nil
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	v, err := setup(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            v.GetInt("port"),
		Environment:     v.GetString("environment"),
		LogLevel:        v.GetString("log_level"),
		LogFile:         v.GetString("log_file"),
		PolicyFile:      v.GetString("policy_file"),
		SessionTTL:      durationOrSeconds(v, "session_ttl"),
		Workers:         v.GetInt("workers"),
		CORSOrigins:     splitList(v.GetStringSlice("cors_origins")),
		ShutdownTimeout: durationOrSeconds(v, "shutdown_timeout"),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.SessionTTL < time.Second {
		return nil, fmt.Errorf("session_ttl must be at least 1s, got %s", cfg.SessionTTL)
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("shutdown_timeout must be positive, got %s", cfg.ShutdownTimeout)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	return cfg, nil
}

// durationOrSeconds reads key as a Go duration ("30m"), or as whole seconds
// when the value is a bare integer ("1800"). viper alone would read a bare
// integer as nanoseconds.
func durationOrSeconds(v *viper.Viper, key string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v.GetString(key))); err == nil {
		return time.Duration(secs) * time.Second
	}
	return v.GetDuration(key)
}

// splitList accepts both list values and a single comma-separated string,
// which is how lists arrive from environment variables.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
