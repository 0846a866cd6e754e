package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"dailies/internal/reminders"
)

const (
	// DefaultPollInterval is how often the dispatcher checks the queue.
	DefaultPollInterval = 30 * time.Second

	// staleAfter bounds how late a trigger may be delivered. Older triggers
	// (the machine was asleep, the dispatcher was not running) are dropped.
	staleAfter = 6 * time.Hour
)

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Queues   *Queues
	Desktop  Desktop
	Interval time.Duration
	Sound    bool
	Now      func() time.Time
	Logger   *zap.Logger

	// OnFired runs after each trigger leaves its profile's queue, delivered or
	// dropped. Daily habit reminders use it to register their next occurrence.
	OnFired func(profileID string, t reminders.Trigger)
}

// Dispatcher delivers due triggers from every profile queue to the desktop.
type Dispatcher struct {
	opts DispatcherOptions
	log  *zap.Logger
}

// NewDispatcher returns a Dispatcher with defaults filled in.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	if opts.Desktop == nil {
		opts.Desktop = noopDesktop{}
	}
	if opts.Interval < time.Second {
		opts.Interval = DefaultPollInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{opts: opts, log: log.Named("dispatcher")}
}

// Run polls the queues until ctx is cancelled. It delivers anything already
// due before the first tick.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.opts.Queues == nil {
		return fmt.Errorf("dispatcher has no queues")
	}
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", d.opts.Interval), func() { d.Tick() }); err != nil {
		return fmt.Errorf("schedule poll: %w", err)
	}

	d.log.Info("dispatcher started",
		zap.String("queues", d.opts.Queues.Dir()),
		zap.Duration("interval", d.opts.Interval),
		zap.Bool("desktop", d.opts.Desktop.IsSupported()))
	d.Tick()
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	d.log.Info("dispatcher stopped")
	return nil
}

// Tick delivers every due trigger once and returns how many were shown.
func (d *Dispatcher) Tick() int {
	queues, err := d.opts.Queues.All()
	if err != nil {
		d.log.Error("list queues", zap.Error(err))
		return 0
	}
	now := d.opts.Now()
	shown := 0
	for _, q := range queues {
		shown += d.drain(q, now)
	}
	return shown
}

func (d *Dispatcher) drain(q *Queue, now time.Time) int {
	due, err := q.TakeDue(now)
	if err != nil {
		d.log.Error("read due triggers", zap.String("profile", q.ProfileID()), zap.Error(err))
		return 0
	}

	shown := 0
	for _, t := range due {
		if now.Sub(t.At) > staleAfter {
			d.log.Info("dropping stale trigger", zap.String("id", t.ID), zap.Time("at", t.At))
		} else if err := d.deliver(t); err != nil {
			d.log.Warn("deliver trigger", zap.String("id", t.ID), zap.Error(err))
		} else {
			shown++
			d.log.Debug("trigger delivered", zap.String("profile", q.ProfileID()), zap.String("id", t.ID))
		}
		if d.opts.OnFired != nil {
			d.opts.OnFired(q.ProfileID(), t)
		}
	}
	return shown
}

func (d *Dispatcher) deliver(t reminders.Trigger) error {
	if d.opts.Sound {
		return d.opts.Desktop.SendWithSound(t.Title, t.Body)
	}
	return d.opts.Desktop.Send(t.Title, t.Body)
}
