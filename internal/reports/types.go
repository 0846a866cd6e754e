// Package reports summarizes a profile's tasks and habits over a day or a
// week.
package reports

import (
	"time"
)

// DailyReport contains aggregated data for a single day.
type DailyReport struct {
	Profile     string       `json:"profile"`
	Date        string       `json:"date"`
	Tasks       TaskSummary  `json:"tasks"`
	Time        TimeSummary  `json:"time"`
	Habits      HabitSummary `json:"habits"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// WeeklyReport contains aggregated data for a week starting on Sunday.
type WeeklyReport struct {
	Profile        string         `json:"profile"`
	StartDate      string         `json:"start_date"`
	EndDate        string         `json:"end_date"`
	Tasks          WeeklyTasks    `json:"tasks"`
	Time           TimeSummary    `json:"time"`
	Habits         WeeklyHabits   `json:"habits"`
	DailyBreakdown []DailySummary `json:"daily_breakdown"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

// TaskItem is the part of a task a report shows.
type TaskItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Priority int    `json:"priority"`
	DueDate  string `json:"due_date,omitempty"`
}

// TaskSummary contains task statistics for a period.
type TaskSummary struct {
	Completed      []TaskItem   `json:"completed"`
	Overdue        []TaskItem   `json:"overdue"`
	CompletedCount int          `json:"completed_count"`
	PendingCount   int          `json:"pending_count"`
	AddedCount     int          `json:"added_count"`
	ByLabel        []LabelCount `json:"by_label"`
}

// LabelCount is a completed-task count for one label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TimeSummary is the time logged on timer habits.
type TimeSummary struct {
	Total   time.Duration `json:"total"`
	ByHabit []HabitTime   `json:"by_habit"`
}

// HabitTime represents time logged for one timer habit.
type HabitTime struct {
	Habit      string        `json:"habit"`
	Duration   time.Duration `json:"duration"`
	Percentage float64       `json:"percentage"`
}

// HabitSummary contains habit statistics for a day.
type HabitSummary struct {
	Habits         []HabitStatus `json:"habits"`
	CompletedCount int           `json:"completed_count"`
	TotalCount     int           `json:"total_count"`
	CompletionRate float64       `json:"completion_rate"`
}

// HabitStatus represents a habit and its completion status on a day.
type HabitStatus struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Done   bool   `json:"done"`
	Streak int    `json:"streak"`
}

// WeeklyTasks contains task statistics for a week.
type WeeklyTasks struct {
	TotalCompleted int            `json:"total_completed"`
	TotalAdded     int            `json:"total_added"`
	ByLabel        []LabelCount   `json:"by_label"`
	ByDay          []DayTaskCount `json:"by_day"`
}

// DayTaskCount represents task counts for a specific day.
type DayTaskCount struct {
	Date      string `json:"date"`
	DayOfWeek string `json:"day_of_week"`
	Completed int    `json:"completed"`
	Added     int    `json:"added"`
}

// WeeklyHabits contains habit statistics for a week.
type WeeklyHabits struct {
	Habits         []WeeklyHabitStatus `json:"habits"`
	OverallRate    float64             `json:"overall_rate"`
	TotalCompleted int                 `json:"total_completed"`
	TotalExpected  int                 `json:"total_expected"`
}

// WeeklyHabitStatus represents a habit's completion over a week.
type WeeklyHabitStatus struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Frequency      string  `json:"frequency"`
	DaysCompleted  []bool  `json:"days_completed"` // Sunday first
	CompletedCount int     `json:"completed_count"`
	ExpectedCount  int     `json:"expected_count"`
	CompletionRate float64 `json:"completion_rate"`
	Streak         int     `json:"streak"`
}

// DailySummary provides a quick overview of a single day within a week.
type DailySummary struct {
	Date           string        `json:"date"`
	DayOfWeek      string        `json:"day_of_week"`
	TasksCompleted int           `json:"tasks_completed"`
	TimeLogged     time.Duration `json:"time_logged"`
	HabitsComplete int           `json:"habits_complete"`
	HabitsTotal    int           `json:"habits_total"`
}
