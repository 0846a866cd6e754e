package app

import (
	"errors"
	"os"
	"testing"
	"time"

	"dailies/internal/model"
)

func writeFile(path, data string) error {
	return os.WriteFile(path, []byte(data), 0600)
}

func TestStreak(t *testing.T) {
	today := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		dates []string
		want  int
	}{
		{"none", nil, 0},
		{"three ending today", []string{"2026-03-08", "2026-03-09", "2026-03-10"}, 3},
		{"gap before run", []string{"2026-03-06", "2026-03-08", "2026-03-09", "2026-03-10"}, 3},
		{"ending yesterday", []string{"2026-03-08", "2026-03-09"}, 2},
		{"only two days ago", []string{"2026-03-08"}, 0},
		{"today only", []string{"2026-03-10"}, 1},
		{"unsorted duplicates", []string{"2026-03-10", "2026-03-09", "2026-03-10"}, 2},
		{"across month", []string{"2026-02-28", "2026-03-01"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(tt.dates, today); got != tt.want {
				t.Errorf("Streak(%v) = %d, want %d", tt.dates, got, tt.want)
			}
		})
	}

	monthEnd := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	if got := Streak([]string{"2026-02-27", "2026-02-28", "2026-03-01"}, monthEnd); got != 3 {
		t.Errorf("Streak across month boundary = %d, want 3", got)
	}
}

func TestToggleHabit_PairIsIdentity(t *testing.T) {
	f := newFixture(t)
	h, err := f.store.AddHabit(model.Habit{Title: "Read"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.ToggleHabit(h.ID, "2026-03-09"); err != nil {
		t.Fatal(err)
	}
	before, _ := f.store.Habit(h.ID)

	if _, err := f.store.ToggleHabit(h.ID, "2026-03-10"); err != nil {
		t.Fatal(err)
	}
	after, err := f.store.ToggleHabit(h.ID, "2026-03-10")
	if err != nil {
		t.Fatal(err)
	}
	if len(after.CompletedDates) != len(before.CompletedDates) || after.Streak != before.Streak {
		t.Errorf("toggle pair changed state: before %+v after %+v", before, after)
	}
}

func TestToggleHabit_StreakAndBest(t *testing.T) {
	f := newFixture(t)
	h, _ := f.store.AddHabit(model.Habit{Title: "Run"})

	var got model.Habit
	for _, d := range []string{"2026-03-08", "2026-03-09", ""} {
		var err error
		if got, err = f.store.ToggleHabit(h.ID, d); err != nil {
			t.Fatal(err)
		}
	}
	if got.Streak != 3 || got.BestStreak != 3 {
		t.Fatalf("streak = %d best = %d, want 3/3", got.Streak, got.BestStreak)
	}

	// Breaking the run lowers the streak but never the best.
	got, err := f.store.ToggleHabit(h.ID, "2026-03-09")
	if err != nil {
		t.Fatal(err)
	}
	if got.Streak != 1 || got.BestStreak != 3 {
		t.Errorf("after gap: streak = %d best = %d, want 1/3", got.Streak, got.BestStreak)
	}

	persisted := f.load(t).Habits[0]
	if persisted.BestStreak != 3 || len(persisted.CompletedDates) != 2 {
		t.Errorf("persisted habit = %+v", persisted)
	}
}

func TestToggleHabit_BestStreakMonotonic(t *testing.T) {
	f := newFixture(t)
	h, _ := f.store.AddHabit(model.Habit{Title: "Meditate"})
	seq := []string{"2026-03-10", "2026-03-09", "2026-03-08", "2026-03-09", "2026-03-10", "2026-03-07", "2026-03-08", "2026-03-10"}
	best := 0
	for _, d := range seq {
		got, err := f.store.ToggleHabit(h.ID, d)
		if err != nil {
			t.Fatal(err)
		}
		if got.BestStreak < best {
			t.Fatalf("bestStreak dropped from %d to %d after toggling %s", best, got.BestStreak, d)
		}
		if got.BestStreak < got.Streak {
			t.Fatalf("bestStreak %d below streak %d", got.BestStreak, got.Streak)
		}
		best = got.BestStreak
	}
}

func TestToggleHabit_RejectsBadDates(t *testing.T) {
	f := newFixture(t)
	h, _ := f.store.AddHabit(model.Habit{Title: "x"})
	for _, d := range []string{"2026-03-11", "yesterday", "2026-13-01"} {
		if _, err := f.store.ToggleHabit(h.ID, d); !errors.Is(err, ErrInvalid) {
			t.Errorf("ToggleHabit(%q) error = %v, want ErrInvalid", d, err)
		}
	}
	if _, err := f.store.ToggleHabit("missing", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("ToggleHabit(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLogin_RefreshesStreaks(t *testing.T) {
	f := newFixture(t)
	h, _ := f.store.AddHabit(model.Habit{Title: "x"})
	for _, d := range []string{"2026-03-09", "2026-03-10"} {
		if _, err := f.store.ToggleHabit(h.ID, d); err != nil {
			t.Fatal(err)
		}
	}

	// Two days later the run is broken.
	*f.now = f.now.AddDate(0, 0, 2)
	f.store.Logout()
	if err := f.store.Login(f.profile); err != nil {
		t.Fatal(err)
	}
	got, _ := f.store.Habit(h.ID)
	if got.Streak != 0 || got.BestStreak != 2 {
		t.Errorf("after login: streak = %d best = %d, want 0/2", got.Streak, got.BestStreak)
	}
	if f.load(t).Habits[0].Streak != 0 {
		t.Error("refreshed streak was not saved")
	}
}

func TestUpdateNumericProgress(t *testing.T) {
	f := newFixture(t)
	h, err := f.store.AddHabit(model.Habit{Title: "Water", Type: model.HabitNumeric, NumericGoal: 8, NumericUnit: "glasses"})
	if err != nil {
		t.Fatal(err)
	}

	got, _ := f.store.UpdateNumericProgress(h.ID, "", 5)
	if got.NumericProgress["2026-03-10"] != 5 || got.IsDoneOn("2026-03-10") {
		t.Fatalf("after +5: %+v", got)
	}
	got, _ = f.store.UpdateNumericProgress(h.ID, "", 3)
	if !got.IsDoneOn("2026-03-10") || got.Streak != 1 {
		t.Fatalf("reaching the goal should complete the day: %+v", got)
	}
	got, _ = f.store.UpdateNumericProgress(h.ID, "", 2)
	if len(got.CompletedDates) != 1 {
		t.Errorf("completion recorded twice: %v", got.CompletedDates)
	}

	got, _ = f.store.UpdateNumericProgress(h.ID, "", -100)
	if got.NumericProgress["2026-03-10"] != 0 {
		t.Errorf("progress = %v, want floor 0", got.NumericProgress["2026-03-10"])
	}
	if !got.IsDoneOn("2026-03-10") {
		t.Error("dropping below the goal must not un-complete the day")
	}
}

func TestUpdateSensorProgress_NeverDecreases(t *testing.T) {
	f := newFixture(t)
	h, _ := f.store.AddHabit(model.Habit{Title: "Steps", Type: model.HabitNumeric, IsSensorBased: true, SensorType: "pedometer", NumericGoal: 1000})

	if _, err := f.store.UpdateSensorProgress(h.ID, "", 120); err != nil {
		t.Fatal(err)
	}
	got, err := f.store.UpdateSensorProgress(h.ID, "", 90)
	if err != nil {
		t.Fatal(err)
	}
	if v := got.NumericProgress["2026-03-10"]; v != 120 {
		t.Errorf("progress = %v, want 120", v)
	}

	got, _ = f.store.UpdateSensorProgress(h.ID, "", 1500)
	if !got.IsDoneOn("2026-03-10") {
		t.Error("sensor reading above goal should complete the day")
	}
	if _, err := f.store.UpdateSensorProgress(h.ID, "", -1); !errors.Is(err, ErrInvalid) {
		t.Errorf("negative reading error = %v, want ErrInvalid", err)
	}
}

func TestAddTimerProgress(t *testing.T) {
	f := newFixture(t)
	h, _ := f.store.AddHabit(model.Habit{Title: "Focus", Type: model.HabitTimer, TimerGoal: 1500})
	got, _ := f.store.AddTimerProgress(h.ID, "", 20*time.Minute)
	if got.IsDoneOn("2026-03-10") {
		t.Fatal("20 minutes should not reach a 25 minute goal")
	}
	got, _ = f.store.AddTimerProgress(h.ID, "", 5*time.Minute)
	if !got.IsDoneOn("2026-03-10") {
		t.Errorf("25 minutes should complete the day: %+v", got)
	}
}

func TestAddHabit_ValidationAndReminders(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.AddHabit(model.Habit{Title: "x", Frequency: "hourly"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad frequency error = %v", err)
	}
	if _, err := f.store.AddHabit(model.Habit{Title: "x", Reminders: []string{"7am"}}); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad reminder error = %v", err)
	}

	h, err := f.store.AddHabit(model.Habit{Title: "Stretch", Reminders: []string{"07:30", "21:00"}, CompletedDates: []string{"2026-03-01"}, Streak: 9})
	if err != nil {
		t.Fatal(err)
	}
	if len(h.CompletedDates) != 0 || h.Streak != 0 || h.Frequency != model.FrequencyDaily || h.Type != model.HabitCheck {
		t.Errorf("AddHabit() = %+v", h)
	}
	ids := f.notifier.withPrefix("habit-" + h.ID + "-")
	if len(ids) != 2 {
		t.Fatalf("habit reminders = %v", ids)
	}
	// 13:00 now: 07:30 is tomorrow, 21:00 later today.
	if at := f.notifier.triggers["habit-"+h.ID+"-0730"].At; !at.Equal(time.Date(2026, 3, 11, 7, 30, 0, 0, time.UTC)) {
		t.Errorf("07:30 reminder at %v", at)
	}

	if err := f.store.DeleteHabit(h.ID); err != nil {
		t.Fatal(err)
	}
	if ids := f.notifier.withPrefix("habit-" + h.ID + "-"); len(ids) != 0 {
		t.Errorf("reminders left after DeleteHabit: %v", ids)
	}
}

func TestUpdateHabit(t *testing.T) {
	f := newFixture(t)
	h, _ := f.store.AddHabit(model.Habit{Title: "Journal", Cue: "after coffee"})
	if _, err := f.store.ToggleHabit(h.ID, ""); err != nil {
		t.Fatal(err)
	}

	title := "Journal daily"
	rem := []string{"22:00"}
	got, err := f.store.UpdateHabit(h.ID, HabitPatch{Title: &title, Reminders: &rem})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != title || got.Cue != "after coffee" || got.Streak != 1 {
		t.Errorf("UpdateHabit() = %+v", got)
	}
	if ids := f.notifier.withPrefix("habit-" + h.ID + "-"); len(ids) != 1 {
		t.Errorf("habit reminders = %v", ids)
	}

	if err := f.store.RescheduleHabit(h.ID); err != nil {
		t.Errorf("RescheduleHabit() error = %v", err)
	}
	if err := f.store.RescheduleHabit("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RescheduleHabit(missing) error = %v", err)
	}
}
