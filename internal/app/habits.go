package app

import (
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dailies/internal/model"
	"dailies/internal/reminders"
	"dailies/internal/storage"
)

// HabitPatch lists the habit fields to change. Nil fields are left as they
// are. Completion dates, streaks and progress only change through the
// toggle and progress operations.
type HabitPatch struct {
	Title         *string
	Description   *string
	Frequency     *model.Frequency
	Reminders     *[]string
	Type          *model.HabitType
	TimerGoal     *int
	NumericGoal   *float64
	NumericUnit   *string
	IsSensorBased *bool
	SensorType    *string
	Cue           *string
	Craving       *string
	Response      *string
	Reward        *string
	HowToApply    *string
}

// Habits returns a copy of the active profile's habits.
func (s *Store) Habits() []model.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil
	}
	out := make([]model.Habit, len(s.doc.Habits))
	for i, h := range s.doc.Habits {
		out[i] = cloneHabit(h)
	}
	return out
}

// Habit returns one habit by id.
func (s *Store) Habit(id string) (model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return model.Habit{}, err
	}
	i := s.habitIndex(id)
	if i < 0 {
		return model.Habit{}, notFound("habit", id)
	}
	return cloneHabit(s.doc.Habits[i]), nil
}

// AddHabit stores a new habit with no completions. Frequency defaults to
// daily and type to check.
func (s *Store) AddHabit(in model.Habit) (model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return model.Habit{}, err
	}

	h := cloneHabit(in)
	h.ID = uuid.NewString()
	h.CompletedDates = []string{}
	h.Streak, h.BestStreak = 0, 0
	h.NumericProgress = nil
	h.CreatedAt = s.now()
	if h.Frequency == "" {
		h.Frequency = model.FrequencyDaily
	}
	if h.Type == "" {
		h.Type = model.HabitCheck
	}
	normalizeHabit(&h)
	if err := validateHabit(h); err != nil {
		return model.Habit{}, err
	}

	s.doc.Habits = append(s.doc.Habits, h)
	if err := s.save(storage.SaveContext{Operation: "add", ItemType: "habit", ItemName: h.Title}); err != nil {
		return cloneHabit(h), err
	}
	s.log.Debug("habit added", zap.String("habit", h.ID))

	if s.scheduler != nil && len(h.Reminders) > 0 {
		return cloneHabit(h), s.schedulingResult(s.scheduler.ScheduleHabit(h))
	}
	return cloneHabit(h), nil
}

// UpdateHabit applies patch to the habit and rebuilds its reminders when
// they changed.
func (s *Store) UpdateHabit(id string, patch HabitPatch) (model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return model.Habit{}, err
	}
	i := s.habitIndex(id)
	if i < 0 {
		return model.Habit{}, notFound("habit", id)
	}

	h := cloneHabit(s.doc.Habits[i])
	setIf(&h.Title, patch.Title)
	setIf(&h.Description, patch.Description)
	setIf(&h.Frequency, patch.Frequency)
	setIf(&h.Type, patch.Type)
	setIf(&h.TimerGoal, patch.TimerGoal)
	setIf(&h.NumericGoal, patch.NumericGoal)
	setIf(&h.NumericUnit, patch.NumericUnit)
	setIf(&h.IsSensorBased, patch.IsSensorBased)
	setIf(&h.SensorType, patch.SensorType)
	setIf(&h.Cue, patch.Cue)
	setIf(&h.Craving, patch.Craving)
	setIf(&h.Response, patch.Response)
	setIf(&h.Reward, patch.Reward)
	setIf(&h.HowToApply, patch.HowToApply)
	if patch.Reminders != nil {
		h.Reminders = slices.Clone(*patch.Reminders)
	}
	normalizeHabit(&h)
	if err := validateHabit(h); err != nil {
		return model.Habit{}, err
	}

	s.doc.Habits[i] = h
	if err := s.save(storage.SaveContext{Operation: "update", ItemType: "habit", ItemName: h.Title}); err != nil {
		return cloneHabit(h), err
	}
	if s.scheduler != nil && patch.Reminders != nil {
		return cloneHabit(h), s.schedulingResult(s.scheduler.ScheduleHabit(h))
	}
	return cloneHabit(h), nil
}

// ToggleHabit adds date to the habit's completion dates, or removes it if
// present, then recomputes the streak. An empty date means today. Dates in
// the future are rejected.
func (s *Store) ToggleHabit(id, date string) (model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return model.Habit{}, err
	}
	i := s.habitIndex(id)
	if i < 0 {
		return model.Habit{}, notFound("habit", id)
	}
	date, err := s.resolveDate(date)
	if err != nil {
		return model.Habit{}, err
	}

	h := &s.doc.Habits[i]
	var op string
	if j := slices.Index(h.CompletedDates, date); j >= 0 {
		h.CompletedDates = slices.Delete(h.CompletedDates, j, j+1)
		op = "reopen"
	} else {
		h.CompletedDates = model.NormalizeDates(append(h.CompletedDates, date))
		op = "complete"
	}
	refreshStreak(h, s.now())
	out := cloneHabit(*h)

	if err := s.save(storage.SaveContext{Operation: op, ItemType: "habit", ItemName: out.Title}); err != nil {
		return out, err
	}
	return out, nil
}

// UpdateNumericProgress adds delta to the day's progress, never going below
// zero. Reaching the habit's goal marks the day complete.
func (s *Store) UpdateNumericProgress(id, date string, delta float64) (model.Habit, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return model.Habit{}, invalid("progress must be a finite number")
	}
	return s.progress(id, date, func(cur float64) float64 {
		return max(0, cur+delta)
	})
}

// UpdateSensorProgress records a sensor reading for the day. Readings only
// raise the stored value: an out-of-order lower reading is ignored.
func (s *Store) UpdateSensorProgress(id, date string, value float64) (model.Habit, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return model.Habit{}, invalid("sensor reading must be a non-negative number")
	}
	return s.progress(id, date, func(cur float64) float64 {
		return max(cur, value)
	})
}

// AddTimerProgress adds elapsed time to the day's progress of a timer
// habit. Progress is kept in seconds.
func (s *Store) AddTimerProgress(id, date string, elapsed time.Duration) (model.Habit, error) {
	secs := elapsed.Seconds()
	return s.progress(id, date, func(cur float64) float64 {
		return max(0, cur+secs)
	})
}

func (s *Store) progress(id, date string, apply func(cur float64) float64) (model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return model.Habit{}, err
	}
	i := s.habitIndex(id)
	if i < 0 {
		return model.Habit{}, notFound("habit", id)
	}
	date, err := s.resolveDate(date)
	if err != nil {
		return model.Habit{}, err
	}

	h := &s.doc.Habits[i]
	if h.NumericProgress == nil {
		h.NumericProgress = map[string]float64{}
	}
	value := apply(h.NumericProgress[date])
	h.NumericProgress[date] = value

	op := "progress"
	if goal, ok := h.Goal(); ok && value >= goal && !h.IsDoneOn(date) {
		h.CompletedDates = model.NormalizeDates(append(h.CompletedDates, date))
		refreshStreak(h, s.now())
		op = "complete"
	}
	out := cloneHabit(*h)

	if err := s.save(storage.SaveContext{Operation: op, ItemType: "habit", ItemName: out.Title}); err != nil {
		return out, err
	}
	return out, nil
}

// DeleteHabit removes the habit and cancels its reminders.
func (s *Store) DeleteHabit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return err
	}
	i := s.habitIndex(id)
	if i < 0 {
		return notFound("habit", id)
	}

	title := s.doc.Habits[i].Title
	s.doc.Habits = slices.Delete(s.doc.Habits, i, i+1)
	if err := s.save(storage.SaveContext{Operation: "delete", ItemType: "habit", ItemName: title}); err != nil {
		return err
	}
	if s.scheduler != nil {
		return s.schedulingResult(s.scheduler.CancelForHabit(id))
	}
	return nil
}

// RescheduleHabit registers the next occurrence of the habit's reminders.
// The notification dispatcher calls it after a habit trigger fires.
func (s *Store) RescheduleHabit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return err
	}
	i := s.habitIndex(id)
	if i < 0 {
		return notFound("habit", id)
	}
	if s.scheduler == nil {
		return nil
	}
	return s.schedulingResult(s.scheduler.ScheduleHabit(s.doc.Habits[i]))
}

func (s *Store) habitIndex(id string) int {
	return slices.IndexFunc(s.doc.Habits, func(h model.Habit) bool { return h.ID == id })
}

// resolveDate validates a YYYY-MM-DD date, defaulting to today.
func (s *Store) resolveDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	today := s.Today()
	if date == "" {
		return today, nil
	}
	if _, err := model.ParseDate(date, time.UTC); err != nil {
		return "", invalid("%v", err)
	}
	// Dates share one layout, so they order lexically.
	if date > today {
		return "", invalid("date %s is in the future", date)
	}
	return date, nil
}

func normalizeHabit(h *model.Habit) {
	h.Title = strings.TrimSpace(h.Title)
	if h.Reminders == nil {
		h.Reminders = []string{}
	}
	for i, r := range h.Reminders {
		h.Reminders[i] = strings.TrimSpace(r)
	}
	h.CompletedDates = model.NormalizeDates(h.CompletedDates)
}

func validateHabit(h model.Habit) error {
	switch {
	case h.Title == "":
		return invalid("habit title is required")
	case len(h.Title) > maxTitleLen:
		return invalid("habit title too long (max %d)", maxTitleLen)
	case !h.Frequency.Valid():
		return invalid("unknown frequency %q", h.Frequency)
	case !h.Type.Valid():
		return invalid("unknown habit type %q", h.Type)
	case h.TimerGoal < 0:
		return invalid("timer goal must not be negative")
	case h.NumericGoal < 0 || math.IsNaN(h.NumericGoal):
		return invalid("numeric goal must not be negative")
	}
	for _, r := range h.Reminders {
		if _, _, _, err := reminders.ParseClock(r); err != nil {
			return invalid("%v", err)
		}
	}
	return nil
}

func cloneHabit(h model.Habit) model.Habit {
	h.CompletedDates = slices.Clone(h.CompletedDates)
	h.Reminders = slices.Clone(h.Reminders)
	h.NumericProgress = maps.Clone(h.NumericProgress)
	return h
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
