package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"dailies/internal/model"
)

// ShortID is the id prefix shown in listings. Commands accept any unique
// prefix.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// TaskLine renders one task: checkbox, id, priority, title, due and label.
func (s *Styles) TaskLine(t model.Task, today string) string {
	box, title := s.TaskCheckboxPending, s.TaskPendingStyle.Render(t.Title)
	if t.Completed {
		box, title = s.TaskCheckboxDone, s.TaskDoneStyle.Render(t.Title)
	}

	parts := []string{box, s.IDStyle.Render(ShortID(t.ID)), s.priority(t.Priority), title}
	if t.DueDate != "" && !t.Completed {
		parts = append(parts, s.due(t.DueDate, t.DueTime, today))
	}
	if t.Category != "" && t.Category != model.DefaultCategory {
		parts = append(parts, s.CategoryStyle.Render("#"+t.Category))
	}
	if n := len(t.Subtasks); n > 0 {
		done := 0
		for _, st := range t.Subtasks {
			if st.Completed {
				done++
			}
		}
		parts = append(parts, s.ProgressStyle.Render(fmt.Sprintf("(%d/%d)", done, n)))
	}
	return strings.Join(parts, " ")
}

func (s *Styles) priority(p int) string {
	label := "P" + strconv.Itoa(p)
	switch p {
	case 1:
		return s.PriorityHighStyle.Render(label)
	case 2, 3:
		return s.PriorityMediumStyle.Render(label)
	default:
		return s.PriorityLowStyle.Render(label)
	}
}

// due renders the due indicator. Dates compare as strings since both are
// YYYY-MM-DD.
func (s *Styles) due(date, clock, today string) string {
	when := date
	switch {
	case date < today:
		when = "overdue " + date
	case date == today:
		when = "today"
	}
	if clock != "" {
		when += " " + clock
	}
	switch {
	case date < today:
		return s.DueDateOverdueStyle.Render(when)
	case date == today:
		return s.DueDateTodayStyle.Render(when)
	default:
		return s.DueDateFutureStyle.Render(when)
	}
}

// HabitLine renders one habit with today's state, streak and progress.
func (s *Styles) HabitLine(h model.Habit, today string) string {
	icon := s.HabitUndoneIcon
	if h.IsDoneOn(today) {
		icon = s.HabitDoneIcon
	}
	parts := []string{icon, s.IDStyle.Render(ShortID(h.ID)), h.Title}
	if p := Progress(h, today); p != "" {
		parts = append(parts, s.ProgressStyle.Render(p))
	}
	if h.Streak > 0 {
		parts = append(parts, s.HabitStreakStyle.Render(fmt.Sprintf("%dd", h.Streak)))
	}
	if h.BestStreak > h.Streak {
		parts = append(parts, s.IDStyle.Render(fmt.Sprintf("best %dd", h.BestStreak)))
	}
	return strings.Join(parts, " ")
}

// Progress renders a goal habit's progress for date, e.g. "5/8 glasses" or
// "20m/25m". Check habits have none.
func Progress(h model.Habit, date string) string {
	goal, ok := h.Goal()
	if !ok {
		return ""
	}
	cur := h.NumericProgress[date]
	if h.Type == model.HabitTimer {
		return fmt.Sprintf("%s/%s", shortDuration(cur), shortDuration(goal))
	}
	out := formatNumber(cur) + "/" + formatNumber(goal)
	if h.NumericUnit != "" {
		out += " " + h.NumericUnit
	}
	return out
}

func shortDuration(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Today renders the today view: tasks due today or overdue, then habits.
func (s *Styles) Today(profile string, tasks []model.Task, habits []model.Habit, today string) string {
	var b strings.Builder
	b.WriteString(s.TitleStyle.Render("dailies"))
	b.WriteString(" ")
	b.WriteString(s.DateStyle.Render(today + "  " + profile))
	b.WriteString("\n\n")

	var due []model.Task
	doneToday := 0
	for _, t := range tasks {
		switch {
		case !t.Completed && t.DueDate != "" && t.DueDate <= today:
			due = append(due, t)
		case t.Completed && t.DueDate == today:
			due = append(due, t)
			doneToday++
		}
	}

	b.WriteString(s.SectionStyle.Render("Tasks"))
	b.WriteString("\n")
	if len(due) == 0 {
		b.WriteString(s.IDStyle.Render("  nothing due"))
		b.WriteString("\n")
	}
	for _, t := range due {
		b.WriteString("  " + s.TaskLine(t, today) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(s.SectionStyle.Render("Habits"))
	b.WriteString("\n")
	if len(habits) == 0 {
		b.WriteString(s.IDStyle.Render("  no habits yet"))
		b.WriteString("\n")
	}
	habitsDone := 0
	for _, h := range habits {
		if h.IsDoneOn(today) {
			habitsDone++
		}
		b.WriteString("  " + s.HabitLine(h, today) + "\n")
	}

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		s.StatLabelStyle.Render("tasks "),
		s.StatValueStyle.Render(fmt.Sprintf("%d/%d", doneToday, len(due))),
		s.StatLabelStyle.Render("   habits "),
		s.StatValueStyle.Render(fmt.Sprintf("%d/%d", habitsDone, len(habits))),
	)
	b.WriteString("\n")
	b.WriteString(s.BoxStyle.Render(stats))
	b.WriteString("\n")
	return b.String()
}

// Success, Warn and Error render one-line status messages.
func (s *Styles) Success(msg string) string { return s.StatusStyle.Render("✓ " + msg) }
func (s *Styles) Warn(msg string) string    { return s.WarningStyle.Render("! " + msg) }
func (s *Styles) Error(msg string) string   { return s.ErrorStyle.Render("✗ " + msg) }
