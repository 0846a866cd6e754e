package reports

import (
	"sort"
	"time"

	"dailies/internal/app"
	"dailies/internal/model"
)

// Generator creates reports from one profile's tasks and habits.
type Generator struct {
	profile string
	tasks   []model.Task
	habits  []model.Habit
	loc     *time.Location
	now     func() time.Time
}

// NewGenerator returns a Generator over a snapshot of the profile's data.
// Days are computed in loc; nil means local time.
func NewGenerator(profile string, tasks []model.Task, habits []model.Habit, loc *time.Location) *Generator {
	if loc == nil {
		loc = time.Local
	}
	return &Generator{profile: profile, tasks: tasks, habits: habits, loc: loc, now: time.Now}
}

// GenerateDaily generates a report for the calendar day containing date.
func (g *Generator) GenerateDaily(date time.Time) *DailyReport {
	day := model.StartOfDay(date.In(g.loc))
	return &DailyReport{
		Profile:     g.profile,
		Date:        model.FormatDate(day),
		Tasks:       g.taskSummary(day, day.AddDate(0, 0, 1)),
		Time:        g.timeSummary(day, 1),
		Habits:      g.habitSummary(day),
		GeneratedAt: g.now(),
	}
}

// GenerateWeekly generates a report for the Sunday-to-Saturday week
// containing date.
func (g *Generator) GenerateWeekly(date time.Time) *WeeklyReport {
	start := startOfWeekSunday(date.In(g.loc))
	end := start.AddDate(0, 0, 7)

	breakdown := make([]DailySummary, 0, 7)
	for i := range 7 {
		day := start.AddDate(0, 0, i)
		tasks := g.taskSummary(day, day.AddDate(0, 0, 1))
		habits := g.habitSummary(day)
		breakdown = append(breakdown, DailySummary{
			Date:           model.FormatDate(day),
			DayOfWeek:      day.Format("Mon"),
			TasksCompleted: tasks.CompletedCount,
			TimeLogged:     g.timeSummary(day, 1).Total,
			HabitsComplete: habits.CompletedCount,
			HabitsTotal:    habits.TotalCount,
		})
	}

	return &WeeklyReport{
		Profile:        g.profile,
		StartDate:      model.FormatDate(start),
		EndDate:        model.FormatDate(end.AddDate(0, 0, -1)),
		Tasks:          g.weeklyTasks(start, end),
		Time:           g.timeSummary(start, 7),
		Habits:         g.weeklyHabits(start),
		DailyBreakdown: breakdown,
		GeneratedAt:    g.now(),
	}
}

// taskSummary returns task statistics for [start, end).
func (g *Generator) taskSummary(start, end time.Time) TaskSummary {
	summary := TaskSummary{Completed: []TaskItem{}, Overdue: []TaskItem{}}
	counts := map[string]int{}
	day := model.FormatDate(start)

	for _, t := range g.tasks {
		if within(t.CreatedAt, start, end) {
			summary.AddedCount++
		}
		doneBy := t.Completed && t.CompletedAt != nil && t.CompletedAt.Before(end)
		if doneBy && !t.CompletedAt.Before(start) {
			summary.Completed = append(summary.Completed, item(t))
			counts[category(t)]++
			continue
		}
		if doneBy || (!t.CreatedAt.IsZero() && !t.CreatedAt.Before(end)) {
			continue
		}
		summary.PendingCount++
		if t.DueDate != "" && t.DueDate < day {
			summary.Overdue = append(summary.Overdue, item(t))
		}
	}

	summary.CompletedCount = len(summary.Completed)
	summary.ByLabel = sortedCounts(counts)
	return summary
}

// timeSummary adds up timer-habit progress over days days from start.
func (g *Generator) timeSummary(start time.Time, days int) TimeSummary {
	var summary TimeSummary
	byHabit := map[string]time.Duration{}
	for _, h := range g.habits {
		if h.Type != model.HabitTimer {
			continue
		}
		for i := range days {
			secs := h.NumericProgress[model.FormatDate(start.AddDate(0, 0, i))]
			if secs <= 0 {
				continue
			}
			d := time.Duration(secs * float64(time.Second))
			byHabit[h.Title] += d
			summary.Total += d
		}
	}

	summary.ByHabit = make([]HabitTime, 0, len(byHabit))
	for title, d := range byHabit {
		summary.ByHabit = append(summary.ByHabit, HabitTime{
			Habit:      title,
			Duration:   d,
			Percentage: float64(d) / float64(summary.Total) * 100,
		})
	}
	sort.Slice(summary.ByHabit, func(i, j int) bool {
		if summary.ByHabit[i].Duration != summary.ByHabit[j].Duration {
			return summary.ByHabit[i].Duration > summary.ByHabit[j].Duration
		}
		return summary.ByHabit[i].Habit < summary.ByHabit[j].Habit
	})
	return summary
}

// habitSummary reports each habit that existed on day.
func (g *Generator) habitSummary(day time.Time) HabitSummary {
	summary := HabitSummary{Habits: []HabitStatus{}}
	date := model.FormatDate(day)
	for _, h := range g.habits {
		if !existedOn(h, day) {
			continue
		}
		done := h.IsDoneOn(date)
		if done {
			summary.CompletedCount++
		}
		summary.Habits = append(summary.Habits, HabitStatus{
			ID:     h.ID,
			Title:  h.Title,
			Done:   done,
			Streak: app.Streak(h.CompletedDates, day),
		})
	}
	summary.TotalCount = len(summary.Habits)
	if summary.TotalCount > 0 {
		summary.CompletionRate = float64(summary.CompletedCount) / float64(summary.TotalCount) * 100
	}
	return summary
}

func (g *Generator) weeklyTasks(start, end time.Time) WeeklyTasks {
	weekly := WeeklyTasks{ByDay: make([]DayTaskCount, 7)}
	for i := range weekly.ByDay {
		day := start.AddDate(0, 0, i)
		weekly.ByDay[i] = DayTaskCount{Date: model.FormatDate(day), DayOfWeek: day.Format("Mon")}
	}

	counts := map[string]int{}
	for _, t := range g.tasks {
		if i := dayIndex(t.CreatedAt, start, end); i >= 0 {
			weekly.TotalAdded++
			weekly.ByDay[i].Added++
		}
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		if i := dayIndex(*t.CompletedAt, start, end); i >= 0 {
			weekly.TotalCompleted++
			weekly.ByDay[i].Completed++
			counts[category(t)]++
		}
	}
	weekly.ByLabel = sortedCounts(counts)
	return weekly
}

func (g *Generator) weeklyHabits(start time.Time) WeeklyHabits {
	weekly := WeeklyHabits{Habits: []WeeklyHabitStatus{}}
	last := start.AddDate(0, 0, 6)

	for _, h := range g.habits {
		if !existedOn(h, last) {
			continue
		}
		days := make([]bool, 7)
		for i := range days {
			days[i] = h.IsDoneOn(model.FormatDate(start.AddDate(0, 0, i)))
		}
		expected, completed := weekTarget(h, start, days)
		status := WeeklyHabitStatus{
			ID:             h.ID,
			Title:          h.Title,
			Frequency:      string(h.Frequency),
			DaysCompleted:  days,
			CompletedCount: completed,
			ExpectedCount:  expected,
			Streak:         app.Streak(h.CompletedDates, last),
		}
		if expected > 0 {
			status.CompletionRate = float64(completed) / float64(expected) * 100
		}
		weekly.TotalExpected += expected
		weekly.TotalCompleted += completed
		weekly.Habits = append(weekly.Habits, status)
	}
	if weekly.TotalExpected > 0 {
		weekly.OverallRate = float64(weekly.TotalCompleted) / float64(weekly.TotalExpected) * 100
	}
	return weekly
}

// weekTarget returns how many completions a habit is expected to have in
// the week and how many of them it got. Daily habits count each day; weekly
// habits need one completion. Monthly habits are expected in the week that
// starts a month, or in any week they were done.
func weekTarget(h model.Habit, start time.Time, days []bool) (expected, completed int) {
	done := 0
	for _, d := range days {
		if d {
			done++
		}
	}

	switch h.Frequency {
	case model.FrequencyWeekly:
		return 1, min(done, 1)
	case model.FrequencyMonthly:
		startsMonth := false
		for i := range 7 {
			if start.AddDate(0, 0, i).Day() == 1 {
				startsMonth = true
			}
		}
		if startsMonth || done > 0 {
			return 1, min(done, 1)
		}
		return 0, 0
	default:
		return 7, done
	}
}

func category(t model.Task) string {
	if t.Category == "" {
		return model.DefaultCategory
	}
	return t.Category
}

func item(t model.Task) TaskItem {
	return TaskItem{ID: t.ID, Title: t.Title, Category: t.Category, Priority: t.Priority, DueDate: t.DueDate}
}

// existedOn reports whether the habit had been created by the end of day.
// Habits without a creation time always count.
func existedOn(h model.Habit, day time.Time) bool {
	return h.CreatedAt.IsZero() || h.CreatedAt.Before(day.AddDate(0, 0, 1))
}

func sortedCounts(counts map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// startOfWeekSunday returns midnight of the Sunday starting t's week.
func startOfWeekSunday(t time.Time) time.Time {
	t = model.StartOfDay(t)
	return t.AddDate(0, 0, -int(t.Weekday()))
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func dayIndex(t, start, end time.Time) int {
	if !within(t, start, end) {
		return -1
	}
	for i := range 7 {
		if t.Before(start.AddDate(0, 0, i+1)) {
			return i
		}
	}
	return -1
}
