package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/agrimitra/agrimitra/internal/metrics"
)

// Janitor runs the administrative cleanup of idle sessions on a cron
// schedule.
type Janitor struct {
	scheduler *robfigcron.Cron
	manager   *Manager
	ttl       time.Duration
}

// NewJanitor schedules CleanupIdle on the given cron expression
// (e.g. "@every 30m").
func NewJanitor(manager *Manager, schedule string, ttl time.Duration) (*Janitor, error) {
	j := &Janitor{
		scheduler: robfigcron.New(),
		manager:   manager,
		ttl:       ttl,
	}

	_, err := j.scheduler.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		removed, err := manager.CleanupIdle(ctx, ttl)
		if err != nil {
			slog.Error("session cleanup failed", "err", err)
			return
		}
		if removed > 0 {
			slog.Info("session cleanup", "removed", removed)
		}
		if live, err := manager.store.List(ctx); err == nil {
			metrics.SetActiveSessions(len(live))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start begins the cleanup scheduler.
func (j *Janitor) Start() {
	j.scheduler.Start()
}

// Stop stops the cleanup scheduler.
func (j *Janitor) Stop() {
	j.scheduler.Stop()
}
