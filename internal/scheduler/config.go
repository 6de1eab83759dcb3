package scheduler

import (
	"strings"
	"time"

	"github.com/eoladapo/sellmate-backend-sub002/internal/config"
)

// Config controls scheduler intervals, job timeouts, and which jobs run in
// this process.
type Config struct {
	RunInterval time.Duration
	BatchSize   int
	JobTimeout  time.Duration
	// EnabledJobs limits the run to the named jobs; empty runs everything
	// (monolith mode).
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		BatchSize:   100,
		JobTimeout:  30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

// ProvideConfig derives the scheduler settings from application config.
func ProvideConfig(cfg config.Config) Config {
	sched := DefaultConfig()
	if cfg.SchedulerInterval > 0 {
		sched.RunInterval = time.Duration(cfg.SchedulerInterval) * time.Second
	}
	if jobs := strings.TrimSpace(cfg.SchedulerJobs); jobs != "" {
		for _, job := range strings.Split(jobs, ",") {
			if job = strings.TrimSpace(job); job != "" {
				sched.EnabledJobs = append(sched.EnabledJobs, job)
			}
		}
	}
	return sched
}
