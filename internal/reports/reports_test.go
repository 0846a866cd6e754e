package reports

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"dailies/internal/model"
)

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func newTestGenerator() *Generator {
	tasks := []model.Task{
		{ID: "t1", Title: "Done today", Completed: true, CompletedAt: ptr(at("2026-03-10 10:00")), CreatedAt: at("2026-03-09 09:00"), Category: "Work", Priority: 1},
		{ID: "t2", Title: "Overdue", DueDate: "2026-03-09", CreatedAt: at("2026-03-01 09:00"), Category: model.DefaultCategory, Priority: 2},
		{ID: "t3", Title: "Added today", CreatedAt: at("2026-03-10 08:00"), Category: model.DefaultCategory, Priority: 4},
		{ID: "t4", Title: "Future", CreatedAt: at("2026-03-12 08:00"), Priority: 4},
		{ID: "t5", Title: "Done earlier", Completed: true, CompletedAt: ptr(at("2026-03-08 12:00")), CreatedAt: at("2026-03-02 08:00"), Priority: 3},
	}
	habits := []model.Habit{
		{ID: "h1", Title: "Read", Frequency: model.FrequencyDaily, CompletedDates: []string{"2026-03-08", "2026-03-09", "2026-03-10"}, CreatedAt: at("2026-03-01 08:00")},
		{ID: "h2", Title: "Gym", Frequency: model.FrequencyWeekly, CompletedDates: []string{"2026-03-09"}, CreatedAt: at("2026-03-01 08:00")},
		{ID: "h3", Title: "Focus", Frequency: model.FrequencyDaily, Type: model.HabitTimer, TimerGoal: 1500,
			NumericProgress: map[string]float64{"2026-03-09": 600, "2026-03-10": 1800},
			CompletedDates:  []string{"2026-03-10"}, CreatedAt: at("2026-03-01 08:00")},
		{ID: "h4", Title: "New", Frequency: model.FrequencyDaily, CompletedDates: []string{}, CreatedAt: at("2026-03-12 08:00")},
	}
	g := NewGenerator("Home", tasks, habits, time.UTC)
	g.now = func() time.Time { return at("2026-03-10 20:00") }
	return g
}

func TestGenerateDaily(t *testing.T) {
	r := newTestGenerator().GenerateDaily(at("2026-03-10 15:00"))

	if r.Date != "2026-03-10" || r.Profile != "Home" {
		t.Errorf("Date/Profile = %s/%s", r.Date, r.Profile)
	}
	if r.Tasks.CompletedCount != 1 || r.Tasks.Completed[0].ID != "t1" {
		t.Errorf("Completed = %+v", r.Tasks.Completed)
	}
	if r.Tasks.AddedCount != 1 {
		t.Errorf("AddedCount = %d, want 1", r.Tasks.AddedCount)
	}
	if r.Tasks.PendingCount != 2 {
		t.Errorf("PendingCount = %d, want 2", r.Tasks.PendingCount)
	}
	if len(r.Tasks.Overdue) != 1 || r.Tasks.Overdue[0].ID != "t2" {
		t.Errorf("Overdue = %+v", r.Tasks.Overdue)
	}
	if len(r.Tasks.ByLabel) != 1 || r.Tasks.ByLabel[0] != (LabelCount{Label: "Work", Count: 1}) {
		t.Errorf("ByLabel = %+v", r.Tasks.ByLabel)
	}

	if r.Habits.TotalCount != 3 || r.Habits.CompletedCount != 2 {
		t.Errorf("habits %d/%d, want 2/3", r.Habits.CompletedCount, r.Habits.TotalCount)
	}
	streaks := map[string]int{}
	for _, h := range r.Habits.Habits {
		streaks[h.ID] = h.Streak
	}
	if streaks["h1"] != 3 || streaks["h2"] != 1 || streaks["h3"] != 1 {
		t.Errorf("streaks = %v", streaks)
	}

	if r.Time.Total != 30*time.Minute {
		t.Errorf("Time.Total = %v, want 30m", r.Time.Total)
	}
	if len(r.Time.ByHabit) != 1 || r.Time.ByHabit[0].Percentage != 100 {
		t.Errorf("Time.ByHabit = %+v", r.Time.ByHabit)
	}
}

func TestGenerateWeekly(t *testing.T) {
	r := newTestGenerator().GenerateWeekly(at("2026-03-10 15:00"))

	if r.StartDate != "2026-03-08" || r.EndDate != "2026-03-14" {
		t.Errorf("week = %s..%s, want 2026-03-08..2026-03-14", r.StartDate, r.EndDate)
	}
	if r.Tasks.TotalCompleted != 2 || r.Tasks.TotalAdded != 3 {
		t.Errorf("tasks completed/added = %d/%d, want 2/3", r.Tasks.TotalCompleted, r.Tasks.TotalAdded)
	}
	if r.Tasks.ByDay[0].DayOfWeek != "Sun" || r.Tasks.ByDay[0].Completed != 1 {
		t.Errorf("ByDay[0] = %+v", r.Tasks.ByDay[0])
	}
	want := []LabelCount{{Label: model.DefaultCategory, Count: 1}, {Label: "Work", Count: 1}}
	if len(r.Tasks.ByLabel) != 2 || r.Tasks.ByLabel[0] != want[0] || r.Tasks.ByLabel[1] != want[1] {
		t.Errorf("ByLabel = %+v, want %+v", r.Tasks.ByLabel, want)
	}

	if r.Habits.TotalExpected != 22 || r.Habits.TotalCompleted != 5 {
		t.Errorf("habits %d/%d, want 5/22", r.Habits.TotalCompleted, r.Habits.TotalExpected)
	}
	for _, h := range r.Habits.Habits {
		if h.ID == "h2" && (h.ExpectedCount != 1 || h.CompletionRate != 100) {
			t.Errorf("weekly habit = %+v", h)
		}
	}
	if r.Time.Total != 40*time.Minute {
		t.Errorf("Time.Total = %v, want 40m", r.Time.Total)
	}
	if len(r.DailyBreakdown) != 7 || r.DailyBreakdown[2].HabitsComplete != 2 {
		t.Errorf("DailyBreakdown = %+v", r.DailyBreakdown)
	}
}

func TestWeekTarget(t *testing.T) {
	none := make([]bool, 7)
	twice := []bool{true, false, true, false, false, false, false}
	tests := []struct {
		name          string
		freq          model.Frequency
		start         string
		days          []bool
		wantExpected  int
		wantCompleted int
	}{
		{"daily", model.FrequencyDaily, "2026-03-08", twice, 7, 2},
		{"weekly done twice", model.FrequencyWeekly, "2026-03-08", twice, 1, 1},
		{"weekly missed", model.FrequencyWeekly, "2026-03-08", none, 1, 0},
		{"monthly mid-month", model.FrequencyMonthly, "2026-03-08", none, 0, 0},
		{"monthly month start", model.FrequencyMonthly, "2026-03-29", none, 1, 0},
		{"monthly done", model.FrequencyMonthly, "2026-03-08", twice, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _ := model.ParseDate(tt.start, time.UTC)
			expected, completed := weekTarget(model.Habit{Frequency: tt.freq}, start, tt.days)
			if expected != tt.wantExpected || completed != tt.wantCompleted {
				t.Errorf("weekTarget() = %d, %d; want %d, %d", expected, completed, tt.wantExpected, tt.wantCompleted)
			}
		})
	}
}

func TestFormatDailyMarkdown(t *testing.T) {
	md := FormatDailyMarkdown(newTestGenerator().GenerateDaily(at("2026-03-10 15:00")))
	for _, want := range []string{
		"# Daily Report: 2026-03-10",
		"Profile: Home",
		"- [x] Done today #Work",
		"- [ ] Overdue (overdue since 2026-03-09)",
		"## Habits (2/3, 67%)",
		"- [x] Read (3 day streak)",
		"## Time (30m)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestFormatWeeklyMarkdown(t *testing.T) {
	md := FormatWeeklyMarkdown(newTestGenerator().GenerateWeekly(at("2026-03-10 15:00")))
	for _, want := range []string{
		"# Weekly Report: 2026-03-08 to 2026-03-14",
		"| Tue | 2026-03-10 | 1 | 2/3 | 30m |",
		"| Gym |",
		"- Work: 1",
		"## Time (40m)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestFormatDailyJSON(t *testing.T) {
	data, err := FormatDailyJSON(newTestGenerator().GenerateDaily(at("2026-03-10 15:00")))
	if err != nil {
		t.Fatalf("FormatDailyJSON() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["date"] != "2026-03-10" {
		t.Errorf("date = %v", decoded["date"])
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "-"},
		{25 * time.Minute, "25m"},
		{2 * time.Hour, "2h"},
		{90 * time.Minute, "1h 30m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
