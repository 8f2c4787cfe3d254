package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/baxromumarov/hotseq"
)

// Config is the demo configuration, read from flags, HOTSEQ_* environment
// variables and an optional config file, in that order of precedence.
type Config struct {
	Mode     string        `mapstructure:"mode"`
	Backend  string        `mapstructure:"backend"`
	Workers  int           `mapstructure:"workers"`
	Capacity int           `mapstructure:"capacity"`
	Lazy     bool          `mapstructure:"lazy"`
	Count    int           `mapstructure:"count"`
	Readers  int           `mapstructure:"readers"`
	Interval time.Duration `mapstructure:"interval"`
	LogLevel string        `mapstructure:"log-level"`
	Metrics  bool          `mapstructure:"metrics"`
}

var (
	modes    = []string{"async", "channel", "shared", "state", "parallel"}
	backends = []string{"thread", "future", "pool"}
)

func bindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (yaml, json or toml)")
	fs.String("mode", "shared", "transport: "+strings.Join(modes, ", "))
	fs.String("backend", "thread", "scheduler: "+strings.Join(backends, ", "))
	fs.Int("workers", 4, "pool backend worker count")
	fs.Int("capacity", 8, "shared ring capacity")
	fs.Bool("lazy", false, "start the producer on first subscription")
	fs.Int("count", 20, "number of values to produce")
	fs.Int("readers", 2, "subscribers for shared and state modes")
	fs.Duration("interval", 10*time.Millisecond, "delay between produced values")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.Bool("metrics", false, "print collected metrics on exit")
}

func loadConfig(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix("hotseq")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if !slices.Contains(modes, c.Mode) {
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if !slices.Contains(backends, c.Backend) {
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Capacity <= 0 {
		return hotseq.ErrInvalidCapacity
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Count < 0 || c.Readers < 0 {
		return fmt.Errorf("count and readers must not be negative")
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// newScheduler builds the configured backend. The returned close function
// releases the pool backend's workers.
func newScheduler(ctx context.Context, cfg Config, log *zap.Logger) (hotseq.Scheduler, func() error) {
	opt := hotseq.WithSchedulerLogger(log)
	switch cfg.Backend {
	case "pool":
		p := hotseq.NewPoolScheduler(ctx, cfg.Workers, opt)
		return p, p.Close
	case "future":
		f := hotseq.NewFutureScheduler(nil, opt)
		return f, f.Close
	default:
		return hotseq.NewThreadScheduler(opt), func() error { return nil }
	}
}
