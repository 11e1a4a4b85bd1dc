package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CronTriggerConfig sets the local time of the daily run and how often
// the trigger looks at the clock.
type CronTriggerConfig struct {
	DailyHour     int
	DailyMinute   int
	CheckInterval time.Duration
}

func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{DailyHour: 2, CheckInterval: time.Minute}
}

// ParseDailyTime parses a 24h "HH:MM" time of day
func ParseDailyTime(value string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, 0, fmt.Errorf("%w: daily time %q is not HH:MM", ErrInvalidConfig, value)
	}
	if hour, err = clockField(h, 23); err != nil {
		return 0, 0, fmt.Errorf("%w: hour %v", ErrInvalidConfig, err)
	}
	if minute, err = clockField(m, 59); err != nil {
		return 0, 0, fmt.Errorf("%w: minute %v", ErrInvalidConfig, err)
	}
	return hour, minute, nil
}

func clockField(s string, limit int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > limit {
		return 0, fmt.Errorf("%q outside 0-%d", s, limit)
	}
	return n, nil
}

// CronTrigger submits the scheduler's daily jobs once per calendar day,
// on the first check at or after the configured time.
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastDay string
}

func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger.Named("cron"),
		now:       time.Now,
	}
}

// Start begins checking the clock. Starting twice is a no-op.
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.loop(ctx, c.done)

	c.logger.Info("Cron trigger started",
		zap.String("daily_at", fmt.Sprintf("%02d:%02d", c.config.DailyHour, c.config.DailyMinute)),
		zap.Duration("check_interval", c.config.CheckInterval))
	return nil
}

func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

// checkAndTrigger reports whether the daily jobs were submitted on this check.
func (c *CronTrigger) checkAndTrigger() bool {
	now := c.now()
	day := now.Format(time.DateOnly)
	due := time.Date(now.Year(), now.Month(), now.Day(), c.config.DailyHour, c.config.DailyMinute, 0, 0, now.Location())

	c.mu.Lock()
	if day == c.lastDay || now.Before(due) {
		c.mu.Unlock()
		return false
	}
	c.lastDay = day
	c.mu.Unlock()

	c.logger.Info("Submitting daily store jobs", zap.String("day", day))
	if err := c.scheduler.ScheduleDailyJobs(now); err != nil {
		c.logger.Error("Failed to schedule daily jobs", zap.Error(err))
	}
	return true
}

// TriggerNow submits one job type immediately for the previous day
func (c *CronTrigger) TriggerNow(jobType JobType) (*Job, error) {
	start, end := PreviousDay(c.now())
	return c.scheduler.ScheduleJob(jobType, start, end)
}
