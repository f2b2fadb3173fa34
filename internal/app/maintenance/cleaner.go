package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/okastudio/platewatch/internal/services"
	"github.com/okastudio/platewatch/pkg/logger"
)

// Cleaner periodically purges read notifications older than the configured
// retention window.
type Cleaner struct {
	notifications *services.NotificationService
	ttl           time.Duration
	schedule      string
	cron          *cron.Cron
	log           *zap.Logger
}

func NewCleaner(notifications *services.NotificationService, ttl time.Duration, schedule string) (*Cleaner, error) {
	if notifications == nil {
		return nil, errors.New("cleaner requires notification service")
	}
	if ttl <= 0 {
		return nil, errors.New("cleaner requires a positive retention ttl")
	}
	if schedule == "" {
		schedule = "0 3 * * *"
	}
	return &Cleaner{
		notifications: notifications,
		ttl:           ttl,
		schedule:      schedule,
		log:           logger.WithModule("maintenance"),
	}, nil
}

// Start registers the sweep on the cron scheduler.
func (c *Cleaner) Start() error {
	c.cron = cron.New()
	if _, err := c.cron.AddFunc(c.schedule, c.sweep); err != nil {
		return fmt.Errorf("maintenance: schedule %q: %w", c.schedule, err)
	}
	c.cron.Start()
	c.log.Info("retention sweeper started",
		zap.String("schedule", c.schedule),
		zap.Duration("ttl", c.ttl))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (c *Cleaner) Stop() {
	if c.cron == nil {
		return
	}
	<-c.cron.Stop().Done()
}

func (c *Cleaner) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-c.ttl)
	purged, err := c.notifications.PurgeReadBefore(ctx, cutoff)
	if err != nil {
		c.log.Error("retention sweep failed", zap.Error(err))
		return
	}
	if purged > 0 {
		c.log.Info("retention sweep complete", zap.Int64("purged", purged))
	}
}

// RunOnce triggers a single sweep immediately. Used at start-up and in tests.
func (c *Cleaner) RunOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-c.ttl)
	return c.notifications.PurgeReadBefore(ctx, cutoff)
}
