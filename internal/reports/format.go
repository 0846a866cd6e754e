package reports

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FormatDailyJSON formats a daily report as JSON.
func FormatDailyJSON(report *DailyReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// FormatWeeklyJSON formats a weekly report as JSON.
func FormatWeeklyJSON(report *WeeklyReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// FormatDailyMarkdown renders a daily report as Markdown.
func FormatDailyMarkdown(r *DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Report: %s\n\n", r.Date)
	if r.Profile != "" {
		fmt.Fprintf(&b, "Profile: %s\n\n", r.Profile)
	}

	fmt.Fprintf(&b, "## Tasks\n\n")
	fmt.Fprintf(&b, "- Completed: %d\n- Added: %d\n- Still open: %d\n\n",
		r.Tasks.CompletedCount, r.Tasks.AddedCount, r.Tasks.PendingCount)
	for _, t := range r.Tasks.Completed {
		fmt.Fprintf(&b, "- [x] %s%s\n", t.Title, labelSuffix(t.Category))
	}
	for _, t := range r.Tasks.Overdue {
		fmt.Fprintf(&b, "- [ ] %s (overdue since %s)\n", t.Title, t.DueDate)
	}
	if len(r.Tasks.Completed)+len(r.Tasks.Overdue) > 0 {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Habits (%d/%d, %.0f%%)\n\n",
		r.Habits.CompletedCount, r.Habits.TotalCount, r.Habits.CompletionRate)
	if len(r.Habits.Habits) == 0 {
		b.WriteString("No habits.\n\n")
	}
	for _, h := range r.Habits.Habits {
		box := " "
		if h.Done {
			box = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s", box, h.Title)
		if h.Streak > 0 {
			fmt.Fprintf(&b, " (%d day streak)", h.Streak)
		}
		b.WriteString("\n")
	}
	if len(r.Habits.Habits) > 0 {
		b.WriteString("\n")
	}

	writeTime(&b, r.Time)
	return b.String()
}

// FormatWeeklyMarkdown renders a weekly report as Markdown.
func FormatWeeklyMarkdown(r *WeeklyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Weekly Report: %s to %s\n\n", r.StartDate, r.EndDate)
	if r.Profile != "" {
		fmt.Fprintf(&b, "Profile: %s\n\n", r.Profile)
	}

	b.WriteString("## Overview\n\n")
	b.WriteString("| Day | Date | Tasks done | Habits | Time |\n")
	b.WriteString("|-----|------|-----------:|-------:|-----:|\n")
	for _, d := range r.DailyBreakdown {
		fmt.Fprintf(&b, "| %s | %s | %d | %d/%d | %s |\n",
			d.DayOfWeek, d.Date, d.TasksCompleted, d.HabitsComplete, d.HabitsTotal, formatDuration(d.TimeLogged))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Tasks\n\n- Completed: %d\n- Added: %d\n\n", r.Tasks.TotalCompleted, r.Tasks.TotalAdded)
	for _, lc := range r.Tasks.ByLabel {
		fmt.Fprintf(&b, "- %s: %d\n", lc.Label, lc.Count)
	}
	if len(r.Tasks.ByLabel) > 0 {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Habits (%d/%d, %.0f%%)\n\n",
		r.Habits.TotalCompleted, r.Habits.TotalExpected, r.Habits.OverallRate)
	if len(r.Habits.Habits) > 0 {
		b.WriteString("| Habit | S | M | T | W | T | F | S | Rate |\n")
		b.WriteString("|-------|---|---|---|---|---|---|---|-----:|\n")
		for _, h := range r.Habits.Habits {
			fmt.Fprintf(&b, "| %s |", h.Title)
			for _, done := range h.DaysCompleted {
				if done {
					b.WriteString(" x |")
				} else {
					b.WriteString("   |")
				}
			}
			fmt.Fprintf(&b, " %.0f%% |\n", h.CompletionRate)
		}
		b.WriteString("\n")
	}

	writeTime(&b, r.Time)
	return b.String()
}

func writeTime(b *strings.Builder, t TimeSummary) {
	if t.Total == 0 {
		return
	}
	fmt.Fprintf(b, "## Time (%s)\n\n", formatDuration(t.Total))
	for _, h := range t.ByHabit {
		fmt.Fprintf(b, "- %s: %s (%.0f%%)\n", h.Habit, formatDuration(h.Duration), h.Percentage)
	}
	b.WriteString("\n")
}

func labelSuffix(label string) string {
	if label == "" {
		return ""
	}
	return " #" + label
}

// formatDuration renders d as "1h 30m" or "25m".
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
