package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IntervalTrigger submits every registered task once per interval
type IntervalTrigger struct {
	interval  time.Duration
	scheduler *Scheduler
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewIntervalTrigger creates a trigger for the scheduler
func NewIntervalTrigger(interval time.Duration, scheduler *Scheduler, logger *zap.Logger) *IntervalTrigger {
	return &IntervalTrigger{
		interval:  interval,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start submits one round immediately, then one per interval
func (c *IntervalTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Maintenance trigger started", zap.Duration("interval", c.interval))
	return nil
}

// Stop stops the trigger
func (c *IntervalTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *IntervalTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	c.trigger()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.trigger()
		}
	}
}

func (c *IntervalTrigger) trigger() {
	for _, task := range c.scheduler.Tasks() {
		if _, err := c.scheduler.Submit(task); err != nil {
			c.logger.Warn("Failed to submit maintenance task",
				zap.String("task", task),
				zap.Error(err),
			)
		}
	}
}
