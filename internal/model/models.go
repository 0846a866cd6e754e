// Package model defines the documents persisted per profile: tasks, habits,
// labels, and the cross-profile settings.
package model

import "time"

// SchemaVersion is the version written into every new profile document.
// Documents without a version are treated as version 1.
const SchemaVersion = 1

// DefaultCategory is the label a task falls into when none is given.
const DefaultCategory = "Inbox"

// Priorities run from 1 (highest) to 4 (lowest).
const (
	PriorityHighest = 1
	PriorityLowest  = 4
)

// Subtask is a checklist entry inside a task.
type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Task is a single to-do item.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	Priority    int        `json:"priority"`
	Category    string     `json:"category"`
	DueDate     string     `json:"dueDate,omitempty"` // YYYY-MM-DD
	DueTime     string     `json:"dueTime,omitempty"` // HH:mm
	Duration    int        `json:"duration,omitempty"`
	Reminders   []string   `json:"reminders"`
	Subtasks    []Subtask  `json:"subtasks"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Frequency is how often a habit is meant to be done.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// HabitType selects how a habit is completed.
type HabitType string

const (
	HabitCheck   HabitType = "check"
	HabitTimer   HabitType = "timer"
	HabitNumeric HabitType = "numeric"
)

// Valid reports whether t is one of the known habit types.
func (t HabitType) Valid() bool {
	switch t {
	case HabitCheck, HabitTimer, HabitNumeric:
		return true
	}
	return false
}

// Habit is a recurring behaviour tracked by completion date.
type Habit struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Frequency      Frequency `json:"frequency"`
	CompletedDates []string  `json:"completedDates"`
	Streak         int       `json:"streak"`
	BestStreak     int       `json:"bestStreak"`
	Reminders      []string  `json:"reminders"` // HH:mm, daily

	Type            HabitType          `json:"type,omitempty"`
	TimerGoal       int                `json:"timerGoal,omitempty"` // seconds
	NumericGoal     float64            `json:"numericGoal,omitempty"`
	NumericUnit     string             `json:"numericUnit,omitempty"`
	NumericProgress map[string]float64 `json:"numericProgress,omitempty"`
	IsSensorBased   bool               `json:"isSensorBased,omitempty"`
	SensorType      string             `json:"sensorType,omitempty"`

	// Atomic-habit notes. Opaque to the store.
	Cue        string `json:"cue,omitempty"`
	Craving    string `json:"craving,omitempty"`
	Response   string `json:"response,omitempty"`
	Reward     string `json:"reward,omitempty"`
	HowToApply string `json:"howToApply,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// IsDoneOn reports whether date is in the habit's completion set.
func (h *Habit) IsDoneOn(date string) bool {
	for _, d := range h.CompletedDates {
		if d == date {
			return true
		}
	}
	return false
}

// Goal returns the progress target that auto-completes a day, and whether
// the habit has one at all.
func (h *Habit) Goal() (float64, bool) {
	switch {
	case h.Type == HabitTimer && h.TimerGoal > 0:
		return float64(h.TimerGoal), true
	case (h.Type == HabitNumeric || h.IsSensorBased) && h.NumericGoal > 0:
		return h.NumericGoal, true
	}
	return 0, false
}

// Label is a user-defined task category.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile identifies a user profile.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProfileDocument is the full persisted snapshot of one profile.
type ProfileDocument struct {
	Version int     `json:"version"`
	Profile Profile `json:"profile"`
	Tasks   []Task  `json:"tasks"`
	Habits  []Habit `json:"habits"`
	Labels  []Label `json:"labels"`
}

// Normalize replaces nil collections with empty ones so the document always
// serializes as arrays rather than null.
func (d *ProfileDocument) Normalize() {
	if d.Version == 0 {
		d.Version = SchemaVersion
	}
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	if d.Habits == nil {
		d.Habits = []Habit{}
	}
	if d.Labels == nil {
		d.Labels = []Label{}
	}
	for i := range d.Tasks {
		if d.Tasks[i].Reminders == nil {
			d.Tasks[i].Reminders = []string{}
		}
		if d.Tasks[i].Subtasks == nil {
			d.Tasks[i].Subtasks = []Subtask{}
		}
	}
	for i := range d.Habits {
		h := &d.Habits[i]
		h.CompletedDates = NormalizeDates(h.CompletedDates)
		if h.Reminders == nil {
			h.Reminders = []string{}
		}
	}
}

// Settings are process-wide preferences shared by all profiles.
type Settings struct {
	DefaultProfile string `json:"defaultProfile,omitempty"`
	ThemeMode      string `json:"themeMode,omitempty"`
}
