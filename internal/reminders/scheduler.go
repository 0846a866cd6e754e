package reminders

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"dailies/internal/model"
)

// ErrScheduling marks a failure to register or cancel triggers. It is a
// warning: the data change that caused the scheduling has already been saved.
var ErrScheduling = errors.New("reminder scheduling failed")

// DefaultDueTime is used for tasks that have a due date but no due time.
const DefaultDueTime = "09:00"

// Trigger kinds carried in Trigger.Data["kind"].
const (
	KindTask  = "task"
	KindHabit = "habit"
)

// Trigger is a one-shot notification registered with the platform.
type Trigger struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	At    time.Time         `json:"at"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notifier is the platform notification service the scheduler drives.
type Notifier interface {
	CreateTrigger(t Trigger) error
	Cancel(id string) error
	ListTriggerIDs() ([]string, error)
}

// Options configures a Scheduler.
type Options struct {
	Notifier       Notifier
	DefaultDueTime string
	Now            func() time.Time
	Logger         *zap.Logger
}

// Scheduler derives triggers from tasks and habits and registers them,
// replacing whatever was registered for the same entity before.
type Scheduler struct {
	notifier       Notifier
	defaultDueTime string
	now            func() time.Time
	log            *zap.Logger
}

// New returns a Scheduler. A nil Notifier is allowed; scheduling then only
// plans and registers nothing.
func New(opts Options) *Scheduler {
	s := &Scheduler{
		notifier:       opts.Notifier,
		defaultDueTime: opts.DefaultDueTime,
		now:            opts.Now,
		log:            opts.Logger,
	}
	if _, _, err := model.ParseClock(s.defaultDueTime); err != nil {
		s.defaultDueTime = DefaultDueTime
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// TaskTriggerID builds the trigger id for one reminder of a task.
func TaskTriggerID(taskID, key string) string { return "task-" + taskID + "-" + key }

// HabitTriggerID builds the trigger id for one reminder time of a habit.
func HabitTriggerID(habitID, key string) string { return "habit-" + habitID + "-" + key }

// ownedBy reports whether trigger id was derived from the entity with the
// given prefix ("task-<id>-"). Keys never contain '-', so an id whose
// remainder does is owned by a different entity that shares the prefix.
func ownedBy(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix)
	return ok && rest != "" && !strings.Contains(rest, "-")
}

// PlanTask returns the triggers a task should have right now, without
// registering anything. Offsets that already passed are skipped silently;
// malformed specifiers are returned as errors.
func (s *Scheduler) PlanTask(task model.Task) ([]Trigger, []error) {
	if task.DueDate == "" || len(task.Reminders) == 0 {
		return nil, nil
	}
	now := s.now()
	clock := task.DueTime
	if clock == "" {
		clock = s.defaultDueTime
	}
	due, err := model.Combine(task.DueDate, clock, now.Location())
	if err != nil {
		return nil, []error{fmt.Errorf("task %s: %w", task.ID, err)}
	}

	var out []Trigger
	var errs []error
	seen := make(map[string]bool, len(task.Reminders))
	for _, spec := range task.Reminders {
		off, err := ParseOffset(spec)
		if err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", task.ID, err))
			continue
		}
		if seen[off.Key] {
			continue
		}
		seen[off.Key] = true

		at := due.Add(-off.Before)
		if !at.After(now) {
			continue
		}
		out = append(out, Trigger{
			ID:    TaskTriggerID(task.ID, off.Key),
			Title: task.Title,
			Body:  taskBody(off, due),
			At:    at,
			Data:  map[string]string{"kind": KindTask, "taskId": task.ID},
		})
	}
	return out, errs
}

func taskBody(off Offset, due time.Time) string {
	if off.Before == 0 {
		return "Due now"
	}
	return fmt.Sprintf("Due at %s on %s", due.Format(model.TimeLayout), due.Format(model.DateLayout))
}

// PlanHabit returns the next occurrence of each of the habit's daily
// reminder times: later today if the time has not passed, else tomorrow.
func (s *Scheduler) PlanHabit(habit model.Habit) ([]Trigger, []error) {
	now := s.now()
	var out []Trigger
	var errs []error
	seen := make(map[string]bool, len(habit.Reminders))
	for _, spec := range habit.Reminders {
		at, key, err := NextDaily(spec, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("habit %s: %w", habit.ID, err))
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		body := habit.Cue
		if body == "" {
			body = "Time for your habit"
		}
		if habit.Streak > 0 {
			body = fmt.Sprintf("%s (streak: %d)", body, habit.Streak)
		}
		out = append(out, Trigger{
			ID:    HabitTriggerID(habit.ID, key),
			Title: habit.Title,
			Body:  body,
			At:    at,
			Data:  map[string]string{"kind": KindHabit, "habitId": habit.ID},
		})
	}
	return out, errs
}

// NextDaily returns the first instant strictly after now at which the
// "HH:mm" time of day occurs, using a daily cron schedule in now's location.
func NextDaily(spec string, now time.Time) (time.Time, string, error) {
	hour, minute, key, err := ParseClock(spec)
	if err != nil {
		return time.Time{}, "", err
	}
	sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		return time.Time{}, "", fmt.Errorf("daily schedule for %q: %w", spec, err)
	}
	return sched.Next(now), key, nil
}

// ScheduleTask replaces the task's registered triggers with a fresh plan.
// Malformed specifiers are skipped and reported in an ErrScheduling error
// after the valid ones are registered.
func (s *Scheduler) ScheduleTask(task model.Task) error {
	triggers, errs := s.PlanTask(task)
	return s.replace("task-"+task.ID+"-", triggers, errs)
}

// ScheduleHabit replaces the habit's registered triggers with a fresh plan,
// reporting malformed specifiers like ScheduleTask.
func (s *Scheduler) ScheduleHabit(habit model.Habit) error {
	triggers, errs := s.PlanHabit(habit)
	return s.replace("habit-"+habit.ID+"-", triggers, errs)
}

// CancelForTask removes every trigger registered for the task.
func (s *Scheduler) CancelForTask(taskID string) error {
	return s.cancelOwned("task-" + taskID + "-")
}

// CancelForHabit removes every trigger registered for the habit.
func (s *Scheduler) CancelForHabit(habitID string) error {
	return s.cancelOwned("habit-" + habitID + "-")
}

// replace cancels everything owned by prefix and registers triggers. planErrs
// are the specifiers the plan skipped.
func (s *Scheduler) replace(prefix string, triggers []Trigger, planErrs []error) error {
	if s.notifier == nil {
		return nil
	}
	for _, err := range planErrs {
		s.log.Warn("skip reminder", zap.Error(err))
	}
	if err := s.cancelOwned(prefix); err != nil {
		return errors.Join(err, errors.Join(planErrs...))
	}
	errs := slices.Clone(planErrs)
	for _, t := range triggers {
		if err := s.notifier.CreateTrigger(t); err != nil {
			errs = append(errs, fmt.Errorf("create %s: %w", t.ID, err))
			continue
		}
		s.log.Debug("trigger registered", zap.String("id", t.ID), zap.Time("at", t.At))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrScheduling, errors.Join(errs...))
	}
	return nil
}

func (s *Scheduler) cancelOwned(prefix string) error {
	if s.notifier == nil {
		return nil
	}
	ids, err := s.notifier.ListTriggerIDs()
	if err != nil {
		return fmt.Errorf("%w: list triggers: %w", ErrScheduling, err)
	}
	var errs []error
	for _, id := range ids {
		if !ownedBy(id, prefix) {
			continue
		}
		if err := s.notifier.Cancel(id); err != nil {
			errs = append(errs, fmt.Errorf("cancel %s: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrScheduling, errors.Join(errs...))
	}
	return nil
}
