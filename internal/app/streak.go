package app

import (
	"time"

	"dailies/internal/model"
)

// Streak counts consecutive completed days ending today, or ending
// yesterday when today is not done yet. Any other gap yields 0.
func Streak(completedDates []string, today time.Time) int {
	done := make(map[string]bool, len(completedDates))
	for _, d := range completedDates {
		done[d] = true
	}

	day := model.StartOfDay(today)
	if !done[model.FormatDate(day)] {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for done[model.FormatDate(day)] {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

// refreshStreak recomputes h.Streak for today and raises BestStreak if
// needed. It reports whether anything changed.
func refreshStreak(h *model.Habit, today time.Time) bool {
	streak := Streak(h.CompletedDates, today)
	best := max(h.BestStreak, streak)
	if streak == h.Streak && best == h.BestStreak {
		return false
	}
	h.Streak, h.BestStreak = streak, best
	return true
}
