package session

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/easyathlete/internal/telemetry/metrics"

	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
)

const DefaultSweepSchedule = "@every 1h"

// Janitor periodically removes profiles idle for longer than idleFor from
// stores that do not expire keys on their own.
type Janitor struct {
	sweeper        Sweeper
	idleFor        time.Duration
	schedule       string
	cron           *cron.Cron
	metricsManager *metrics.Manager
}

// NewJanitor returns nil when the store evicts profiles by itself.
func NewJanitor(store Store, idleFor time.Duration, schedule string, metricsManager *metrics.Manager) *Janitor {
	sweeper, ok := store.(Sweeper)
	if !ok {
		return nil
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &Janitor{
		sweeper:        sweeper,
		idleFor:        idleFor,
		schedule:       schedule,
		metricsManager: metricsManager,
	}
}

func (j *Janitor) Start(ctx context.Context) error {
	j.cron = cron.New()
	if err := j.cron.AddFunc(j.schedule, func() {
		j.Sweep(ctx)
	}); err != nil {
		return fmt.Errorf("add sweep job [%s]: %w", j.schedule, err)
	}
	j.cron.Start()
	log.Debugf("session janitor started, schedule [%s], idle after %s", j.schedule, j.idleFor)
	return nil
}

func (j *Janitor) Sweep(ctx context.Context) int {
	removed, err := j.sweeper.SweepIdle(ctx, j.idleFor)
	if err != nil {
		log.Errorf("sweep idle profiles: %s", err)
	}
	if removed > 0 {
		log.Infof("swept %d idle session profiles", removed)
		if j.metricsManager != nil {
			j.metricsManager.CounterSweptProfiles.Add(float64(removed))
		}
	}
	return removed
}

func (j *Janitor) Stop() {
	if j.cron != nil {
		j.cron.Stop()
	}
}
