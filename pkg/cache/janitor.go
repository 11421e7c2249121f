package cache

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Janitor sweeps expired cache entries on a cron schedule. Expired entries
// are already evicted lazily on access; the janitor keeps memory bounded
// for keys that are never looked up again.
type Janitor struct {
	cache    *Cache
	cron     *cron.Cron
	schedule string
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewJanitor creates a janitor for the given cache.
//
// Common schedules:
//   - "@every 1m"  - every minute
//   - "0 * * * *"  - hourly
func NewJanitor(c *Cache, schedule string, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		cache:    c,
		cron:     cron.New(),
		schedule: schedule,
		logger:   logger.With("component", "cache.janitor"),
	}
}

// Start begins the scheduled sweeping. An empty schedule disables the
// janitor without error.
func (j *Janitor) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return fmt.Errorf("janitor already running")
	}
	if j.schedule == "" {
		j.logger.Info("sweep schedule not configured, janitor disabled")
		return nil
	}

	if _, err := cron.ParseStandard(j.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", j.schedule, err)
	}

	if _, err := j.cron.AddFunc(j.schedule, j.sweep); err != nil {
		return fmt.Errorf("failed to schedule cache sweep: %w", err)
	}

	j.cron.Start()
	j.running = true
	j.logger.Info("cache janitor started", "schedule", j.schedule)
	return nil
}

// Stop halts scheduled sweeping. Safe to call more than once.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.running = false
	j.logger.Info("cache janitor stopped")
}

func (j *Janitor) sweep() {
	removed := j.cache.Sweep()
	if removed > 0 {
		j.logger.Debug("swept expired cache entries",
			"removed", removed,
			"remaining", j.cache.Len(),
		)
	}
}
