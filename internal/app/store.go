// Package app holds the in-memory state of the active profile and applies
// every mutation to it: tasks, habits, labels, streaks and progress. Each
// mutation is written through to storage before it returns, then reminders
// and the widget are brought up to date.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"dailies/internal/model"
	"dailies/internal/reminders"
	"dailies/internal/storage"
)

var (
	// ErrNotFound is returned when a task, habit or label id does not exist
	// in the active profile.
	ErrNotFound = errors.New("not found")

	// ErrNoActiveProfile is returned by every operation that needs a
	// logged-in profile.
	ErrNoActiveProfile = errors.New("no active profile")

	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid input")

	// ErrScheduling is returned alongside a successful mutation when its
	// reminders could not be registered. The data change itself was saved.
	ErrScheduling = reminders.ErrScheduling
)

// Scheduler registers and cancels reminders for tasks and habits.
// *reminders.Scheduler implements it.
type Scheduler interface {
	ScheduleTask(task model.Task) error
	ScheduleHabit(habit model.Habit) error
	CancelForTask(taskID string) error
	CancelForHabit(habitID string) error
}

// Widget receives the current day's state after every mutation.
// *widget.Sync implements it.
type Widget interface {
	Push(tasks []model.Task, habits []model.Habit, today string)
}

// Options configures a Store. Profiles is required.
type Options struct {
	Profiles  *storage.Profiles
	Scheduler Scheduler
	Widget    Widget
	Logger    *zap.Logger
	Now       func() time.Time
}

// Store is the state container for the active profile. It is safe for
// concurrent use; every operation holds the store lock for its duration.
type Store struct {
	mu sync.Mutex

	profiles  *storage.Profiles
	scheduler Scheduler
	widget    Widget
	log       *zap.Logger
	now       func() time.Time

	doc *model.ProfileDocument // nil when logged out
}

// New returns a logged-out Store.
func New(opts Options) *Store {
	s := &Store{
		profiles:  opts.Profiles,
		scheduler: opts.Scheduler,
		widget:    opts.Widget,
		log:       opts.Logger,
		now:       opts.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Login makes profile the active one and loads its saved state. A profile
// with no document yet starts empty and is saved immediately. Streaks are
// recomputed for the current day, since days may have passed since the
// last session.
func (s *Store) Login(profile model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.profiles.Load(profile.ID)
	fresh := false
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		doc = storage.NewDocument(profile)
		fresh = true
	default:
		s.doc = nil
		return err
	}
	if doc.Profile.Name == "" {
		doc.Profile.Name = profile.Name
	}
	s.doc = doc

	today := s.now()
	changed := false
	for i := range doc.Habits {
		if refreshStreak(&doc.Habits[i], today) {
			changed = true
		}
	}

	s.log.Debug("profile loaded",
		zap.String("profile", profile.ID),
		zap.Int("tasks", len(doc.Tasks)),
		zap.Int("habits", len(doc.Habits)))

	if fresh || changed {
		op := "refresh"
		if fresh {
			op = "add"
		}
		return s.save(storage.SaveContext{Operation: op, ItemType: "profile", ItemName: doc.Profile.Name})
	}
	return nil
}

// Logout drops the in-memory state. Nothing is deleted on disk.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = nil
}

// ActiveProfile returns the logged-in profile.
func (s *Store) ActiveProfile() (model.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return model.Profile{}, false
	}
	return s.doc.Profile, true
}

// Today returns the current calendar date as stored in documents.
func (s *Store) Today() string {
	return model.FormatDate(s.now())
}

// ResyncReminders rebuilds every registered trigger of the active profile:
// open tasks and all habits are rescheduled, completed tasks are cancelled.
func (s *Store) ResyncReminders() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNoActiveProfile
	}
	if s.scheduler == nil {
		return nil
	}

	var errs []error
	for _, t := range s.doc.Tasks {
		if t.Completed {
			errs = append(errs, s.scheduler.CancelForTask(t.ID))
		} else {
			errs = append(errs, s.scheduler.ScheduleTask(t))
		}
	}
	for _, h := range s.doc.Habits {
		errs = append(errs, s.scheduler.ScheduleHabit(h))
	}
	return s.schedulingResult(errors.Join(errs...))
}

// save writes the full snapshot and, on success, refreshes the widget.
// Callers hold s.mu.
func (s *Store) save(ctx storage.SaveContext) error {
	if err := s.profiles.SaveWithContext(s.doc.Profile.ID, s.doc, ctx); err != nil {
		s.log.Error("save profile",
			zap.String("profile", s.doc.Profile.ID),
			zap.String("operation", ctx.Operation),
			zap.Error(err))
		return err
	}
	if s.widget != nil {
		s.widget.Push(s.doc.Tasks, s.doc.Habits, s.Today())
	}
	return nil
}

// schedulingResult logs a scheduling failure and makes sure it matches
// ErrScheduling.
func (s *Store) schedulingResult(err error) error {
	if err == nil {
		return nil
	}
	s.log.Warn("reminder scheduling failed", zap.Error(err))
	if errors.Is(err, ErrScheduling) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrScheduling, err)
}

func (s *Store) active() error {
	if s.doc == nil {
		return ErrNoActiveProfile
	}
	return nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
