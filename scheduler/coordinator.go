package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"pixeldesk/models"
	"pixeldesk/service"
)

// Coordinator serializes sweeps started by the cron schedule, the lazy
// request trigger and the manual endpoint. The guard is process-local.
type Coordinator struct {
	sweeper     service.SweepService
	minInterval time.Duration
	now         service.Clock

	mu      sync.Mutex
	running bool
	lastRun time.Time

	background sync.WaitGroup
}

// NewCoordinator creates a coordinator. Lazy triggers run at most once per minInterval.
func NewCoordinator(sweeper service.SweepService, minInterval time.Duration, now service.Clock) *Coordinator {
	if now == nil {
		now = service.UTCNow
	}
	return &Coordinator{
		sweeper:     sweeper,
		minInterval: minInterval,
		now:         now,
	}
}

// acquire marks a sweep as running. Lazy triggers also require the interval to have elapsed.
func (c *Coordinator) acquire(respectInterval bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return false
	}
	now := c.now()
	if respectInterval && !c.lastRun.IsZero() && now.Sub(c.lastRun) < c.minInterval {
		return false
	}
	c.running = true
	c.lastRun = now
	return true
}

func (c *Coordinator) release() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

// TryRun sweeps unless a sweep is already running or, for lazy triggers, the
// last one started less than minInterval ago. A skipped call returns nil, nil.
func (c *Coordinator) TryRun(ctx context.Context, trigger models.SweepTrigger) (*models.SweepRun, error) {
	if !c.acquire(trigger == models.SweepTriggerLazy) {
		log.WithField("trigger", trigger).Debug("Sweep skipped")
		return nil, nil
	}
	defer c.release()

	return c.sweeper.Sweep(ctx, trigger)
}

// RunNow sweeps regardless of the interval but never overlaps a running sweep
func (c *Coordinator) RunNow(ctx context.Context, trigger models.SweepTrigger) (*models.SweepRun, error) {
	if !c.acquire(false) {
		return nil, service.ErrSweepInProgress
	}
	defer c.release()

	return c.sweeper.Sweep(ctx, trigger)
}

// TriggerAsync fires a lazy sweep in the background, detached from ctx's cancellation
func (c *Coordinator) TriggerAsync(ctx context.Context) {
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		if _, err := c.TryRun(context.WithoutCancel(ctx), models.SweepTriggerLazy); err != nil {
			log.WithError(err).Error("Lazy sweep failed")
		}
	}()
}

// Wait blocks until background sweeps have returned
func (c *Coordinator) Wait() {
	c.background.Wait()
}

// LastRun returns when the most recent sweep started, zero if none has
func (c *Coordinator) LastRun() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRun
}

// Running reports whether a sweep is in progress
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start registers a cron-triggered sweep for the given schedule expression.
// Returns a cleanup function that stops the schedule and waits for running sweeps.
func (c *Coordinator) Start(ctx context.Context, schedule string) (func(), error) {
	scheduler := cron.New()

	_, err := scheduler.AddFunc(schedule, func() {
		run, err := c.TryRun(ctx, models.SweepTriggerCron)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("Scheduled sweep failed")
			}
			return
		}
		if run == nil {
			return
		}
		log.WithFields(log.Fields{
			"runID":     run.ID,
			"reclaimed": run.Reclaimed,
			"warned":    run.Warned,
		}).Info("Scheduled sweep finished")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	scheduler.Start()
	log.WithField("schedule", schedule).Info("Sweep scheduler started")

	return func() {
		log.Info("Sweep scheduler shutting down...")
		<-scheduler.Stop().Done()
		c.Wait()
	}, nil
}
