package hotseq

import (
	"time"

	"go.uber.org/zap"
)

type config struct {
	lazy   bool
	name   string
	logger *zap.Logger
}

// Option configures a live stream created by [ToShared], [ToState],
// [ToChannel] or [ToAsync].
type Option func(*config)

func defaultConfig(name string) config {
	return config{
		name:   name,
		logger: zap.NewNop(),
	}
}

func buildConfig(name string, opts []Option) config {
	cfg := defaultConfig(name)
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithLazyStart delays the producer until the first subscription instead of
// starting it on construction. However many subscribers race, exactly one
// producer is started.
func WithLazyStart() Option {
	return func(c *config) {
		c.lazy = true
	}
}

// WithName sets the name used for the stream's tasks and log entries.
// It panics if name is empty.
func WithName(name string) Option {
	return func(c *config) {
		if name == "" {
			panic("hotseq: WithName requires a non-empty name")
		}
		c.name = name
	}
}

// WithLogger sets the logger for producer and reader lifecycle events.
// A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l == nil {
			l = zap.NewNop()
		}
		c.logger = l
	}
}

type schedulerConfig struct {
	queueSize       int
	onMetrics       func(PoolStats)
	metricsInterval time.Duration
	logger          *zap.Logger
}

// SchedulerOption configures a [Scheduler] backend. Pool-specific options are
// ignored by the other backends.
type SchedulerOption func(*schedulerConfig)

func buildSchedulerConfig(workers int, opts []SchedulerOption) schedulerConfig {
	cfg := schedulerConfig{
		queueSize: workers * 2,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithQueueSize sets the pool's task queue buffer size. Default is n * 2.
func WithQueueSize(size int) SchedulerOption {
	return func(c *schedulerConfig) {
		if size < 0 {
			panic("hotseq: WithQueueSize requires non-negative size")
		}
		c.queueSize = size
	}
}

// WithPoolMetrics registers a periodic pool metrics callback that fires
// every interval. The callback receives a snapshot of current pool counters.
//
// Panics if interval <= 0 or fn is nil.
func WithPoolMetrics(interval time.Duration, fn func(PoolStats)) SchedulerOption {
	if interval <= 0 {
		panic("hotseq: WithPoolMetrics requires interval > 0")
	}
	if fn == nil {
		panic("hotseq: WithPoolMetrics requires non-nil callback")
	}
	return func(c *schedulerConfig) {
		c.onMetrics = fn
		c.metricsInterval = interval
	}
}

// WithSchedulerLogger sets the logger used to report failed tasks.
func WithSchedulerLogger(l *zap.Logger) SchedulerOption {
	return func(c *schedulerConfig) {
		if l == nil {
			l = zap.NewNop()
		}
		c.logger = l
	}
}
