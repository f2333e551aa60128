// Package config loads and validates file2text configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config captures every configuration knob, from file, environment
// (FILE2TEXT_ prefix) and command-line flags in increasing precedence.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Progress ProgressConfig `mapstructure:"progress"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Status   StatusConfig   `mapstructure:"status"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// LoggingConfig toggles zap development features and the minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// ProgressConfig controls progress rendering.
type ProgressConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Verbose        bool          `mapstructure:"verbose"`
	Mode           string        `mapstructure:"mode"`
	Throttle       time.Duration `mapstructure:"throttle"`
	LogInterval    time.Duration `mapstructure:"log_interval"`
	ShowPercentage bool          `mapstructure:"show_percentage"`
	ShowCount      bool          `mapstructure:"show_count"`
}

// ScanConfig governs input discovery.
type ScanConfig struct {
	Concurrency  int  `mapstructure:"concurrency"`
	FollowHidden bool `mapstructure:"follow_hidden"`
}

// StatusConfig configures the optional status HTTP server. An empty Addr
// disables it.
type StatusConfig struct {
	Addr string `mapstructure:"addr"`
}

// PubSubConfig holds the completion notice destination. An empty ProjectID
// disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// TracingConfig enables OpenTelemetry spans. With a ProjectID they are
// exported to Cloud Trace.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	ProjectID   string `mapstructure:"project_id"`
}

// flagKeys maps command-line flag names onto configuration keys.
var flagKeys = map[string]string{
	"progress":      "progress.enabled",
	"verbose":       "progress.verbose",
	"progress-mode": "progress.mode",
	"concurrency":   "scan.concurrency",
	"hidden":        "scan.follow_hidden",
	"status-addr":   "status.addr",
	"log-level":     "logging.level",
}

// Load builds a Config from path (optional), the environment, and flags
// (optional). Only flags named in the binding table are consulted.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FILE2TEXT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("progress.enabled", false)
	v.SetDefault("progress.verbose", false)
	v.SetDefault("progress.mode", "auto")
	v.SetDefault("progress.throttle", "100ms")
	v.SetDefault("progress.log_interval", "5s")
	v.SetDefault("progress.show_percentage", true)
	v.SetDefault("progress.show_count", true)
	v.SetDefault("scan.concurrency", 4)
	v.SetDefault("scan.follow_hidden", false)
	v.SetDefault("status.addr", "")
	v.SetDefault("pubsub.topic", "file2text-progress")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "file2text")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Progress.Mode {
	case "auto", "bar", "log", "none":
	default:
		return fmt.Errorf("progress.mode must be one of auto, bar, log, none; got %q", c.Progress.Mode)
	}
	if c.Progress.Throttle < 0 {
		return fmt.Errorf("progress.throttle must be >= 0")
	}
	if c.Progress.LogInterval < 0 {
		return fmt.Errorf("progress.log_interval must be >= 0")
	}
	if c.Scan.Concurrency <= 0 {
		return fmt.Errorf("scan.concurrency must be > 0")
	}
	if c.PubSub.ProjectID != "" && c.PubSub.Topic == "" {
		return fmt.Errorf("pubsub.topic must be set when pubsub.project_id is set")
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		return fmt.Errorf("tracing.service_name must be set when tracing is enabled")
	}
	return nil
}
