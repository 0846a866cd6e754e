package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"dailies/internal/config"
	"dailies/internal/model"
)

// setupTest disables colors so output compares as plain text.
func setupTest(t *testing.T) *Styles {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
	return NewStylesFromTheme(config.ThemeConfig{})
}

func TestNewStyles_UsesThemeColors(t *testing.T) {
	styles := NewStylesFromTheme(config.ThemeConfig{Primary: "#FF0000", Accent: "#00FF00", Muted: "#0000FF"})
	if styles.ColorPrimary != lipgloss.Color("#FF0000") {
		t.Errorf("ColorPrimary = %v, want #FF0000", styles.ColorPrimary)
	}
	if styles.ColorAccent != lipgloss.Color("#00FF00") {
		t.Errorf("ColorAccent = %v, want #00FF00", styles.ColorAccent)
	}
	if styles.ColorMuted != lipgloss.Color("#0000FF") {
		t.Errorf("ColorMuted = %v, want #0000FF", styles.ColorMuted)
	}
}

func TestNewStyles_UsesDefaults(t *testing.T) {
	styles := NewStylesFromTheme(config.ThemeConfig{})
	if styles.ColorPrimary != lipgloss.Color("#7C3AED") {
		t.Errorf("ColorPrimary = %v, want default #7C3AED", styles.ColorPrimary)
	}
	if styles.TaskCheckboxDone == "" || styles.HabitDoneIcon == "" {
		t.Error("component styles not initialized")
	}
}

func TestTaskLine(t *testing.T) {
	s := setupTest(t)
	today := "2026-03-10"
	tests := []struct {
		name string
		task model.Task
		want []string
	}{
		{
			"overdue with label",
			model.Task{ID: "0123456789abcdef", Title: "Pay rent", Priority: 1, Category: "Home", DueDate: "2026-03-09"},
			[]string{"[ ]", "01234567", "P1", "Pay rent", "overdue 2026-03-09", "#Home"},
		},
		{
			"due today at a time",
			model.Task{ID: "t1", Title: "Call", Priority: 4, Category: model.DefaultCategory, DueDate: today, DueTime: "15:00"},
			[]string{"P4", "today 15:00"},
		},
		{
			"done with subtasks",
			model.Task{ID: "t2", Title: "Pack", Priority: 2, Completed: true, DueDate: "2026-03-01",
				Subtasks: []model.Subtask{{Title: "a", Completed: true}, {Title: "b"}}},
			[]string{"[✓]", "Pack", "(1/2)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.TaskLine(tt.task, today)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("TaskLine() = %q, missing %q", got, w)
				}
			}
		})
	}

	if got := s.TaskLine(model.Task{ID: "t3", Title: "x", Priority: 3, Category: model.DefaultCategory}, today); strings.Contains(got, "#") {
		t.Errorf("default category should not be shown: %q", got)
	}
	if got := s.TaskLine(model.Task{ID: "t4", Title: "x", Completed: true, DueDate: "2026-01-01"}, today); strings.Contains(got, "overdue") {
		t.Errorf("completed task shown as overdue: %q", got)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name  string
		habit model.Habit
		want  string
	}{
		{"check", model.Habit{Type: model.HabitCheck}, ""},
		{"numeric", model.Habit{Type: model.HabitNumeric, NumericGoal: 8, NumericUnit: "glasses", NumericProgress: map[string]float64{"2026-03-10": 5}}, "5/8 glasses"},
		{"fractional", model.Habit{Type: model.HabitNumeric, NumericGoal: 2.5, NumericProgress: map[string]float64{"2026-03-10": 1.25}}, "1.25/2.5"},
		{"timer", model.Habit{Type: model.HabitTimer, TimerGoal: 1500, NumericProgress: map[string]float64{"2026-03-10": 1200}}, "20m/25m"},
		{"long timer", model.Habit{Type: model.HabitTimer, TimerGoal: 5400}, "0m/1h30m"},
	}
	for _, tt := range tests {
		if got := Progress(tt.habit, "2026-03-10"); got != tt.want {
			t.Errorf("%s: Progress() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestHabitLine(t *testing.T) {
	s := setupTest(t)
	h := model.Habit{ID: "h1", Title: "Read", CompletedDates: []string{"2026-03-09", "2026-03-10"}, Streak: 2, BestStreak: 5}
	got := s.HabitLine(h, "2026-03-10")
	for _, w := range []string{"●", "Read", "2d", "best 5d"} {
		if !strings.Contains(got, w) {
			t.Errorf("HabitLine() = %q, missing %q", got, w)
		}
	}
	if got := s.HabitLine(model.Habit{ID: "h2", Title: "Run"}, "2026-03-10"); !strings.Contains(got, "○") || strings.Contains(got, "best") {
		t.Errorf("HabitLine() = %q", got)
	}
}

func TestToday(t *testing.T) {
	s := setupTest(t)
	today := "2026-03-10"
	tasks := []model.Task{
		{ID: "t1", Title: "Overdue", Priority: 1, DueDate: "2026-03-08"},
		{ID: "t2", Title: "Due today", Priority: 2, DueDate: today},
		{ID: "t3", Title: "Done today", Priority: 3, DueDate: today, Completed: true},
		{ID: "t4", Title: "Next week", Priority: 4, DueDate: "2026-03-17"},
		{ID: "t5", Title: "Someday", Priority: 4},
	}
	habits := []model.Habit{{ID: "h1", Title: "Stretch", CompletedDates: []string{today}}, {ID: "h2", Title: "Journal"}}

	got := s.Today("Home", tasks, habits, today)
	for _, w := range []string{"dailies", "Home", "Overdue", "Due today", "Done today", "Stretch", "Journal", "1/3", "1/2"} {
		if !strings.Contains(got, w) {
			t.Errorf("Today() missing %q:\n%s", w, got)
		}
	}
	for _, w := range []string{"Next week", "Someday"} {
		if strings.Contains(got, w) {
			t.Errorf("Today() should not list %q", w)
		}
	}

	empty := s.Today("Home", nil, nil, today)
	if !strings.Contains(empty, "nothing due") || !strings.Contains(empty, "no habits yet") {
		t.Errorf("empty Today():\n%s", empty)
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("0123456789"); got != "01234567" {
		t.Errorf("ShortID() = %q", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("ShortID(short) = %q", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	setupTest(t)
	if got := RenderMarkdown("  \n"); got != "" {
		t.Errorf("RenderMarkdown(blank) = %q, want empty", got)
	}
	got := RenderMarkdown("# Daily Report\n\n- [x] Read\n")
	if !strings.Contains(got, "Daily Report") || !strings.Contains(got, "Read") {
		t.Errorf("RenderMarkdown() lost content:\n%s", got)
	}
}
