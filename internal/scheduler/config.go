package scheduler

import (
	"time"

	"github.com/smallbiznis/paybridge/internal/config"
)

// Config controls the sync scheduler cadence.
type Config struct {
	Enabled     bool
	RunInterval time.Duration
	JobTimeout  time.Duration
	Concurrency int
}

func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		RunInterval: 15 * time.Minute,
		JobTimeout:  2 * time.Minute,
		Concurrency: 4,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Enabled:     cfg.Sync.Enabled,
		RunInterval: cfg.Sync.Interval,
		JobTimeout:  cfg.Sync.JobTimeout,
		Concurrency: cfg.Sync.Concurrency,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.Concurrency
	}
	return c
}
