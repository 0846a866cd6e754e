package reminders

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"dailies/internal/model"
)

type fakeNotifier struct {
	triggers  map[string]Trigger
	createErr error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{triggers: map[string]Trigger{}}
}

func (f *fakeNotifier) CreateTrigger(t Trigger) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.triggers[t.ID] = t
	return nil
}

func (f *fakeNotifier) Cancel(id string) error {
	delete(f.triggers, id)
	return nil
}

func (f *fakeNotifier) ListTriggerIDs() ([]string, error) {
	ids := make([]string, 0, len(f.triggers))
	for id := range f.triggers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func fixedClock(hour, minute int) func() time.Time {
	return func() time.Time { return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC) }
}

func TestPlanTask_SkipsPastOffsets(t *testing.T) {
	task := model.Task{
		ID:        "t1",
		Title:     "Dentist",
		DueDate:   "2026-03-10",
		DueTime:   "14:00",
		Reminders: []string{ThirtyMinutes, OneDay},
	}
	tests := []struct {
		name  string
		now   func() time.Time
		want  []string
		first time.Time
	}{
		{
			name:  "one offset left",
			now:   fixedClock(13, 0),
			want:  []string{"task-t1-30m"},
			first: time.Date(2026, 3, 10, 13, 30, 0, 0, time.UTC),
		},
		{
			name: "due time reached",
			now:  fixedClock(14, 0),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Options{Now: tt.now})
			got, errs := s.PlanTask(task)
			if len(errs) != 0 {
				t.Fatalf("PlanTask errors = %v", errs)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("PlanTask = %d triggers, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("trigger[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
			if len(got) > 0 && !got[0].At.Equal(tt.first) {
				t.Errorf("trigger At = %v, want %v", got[0].At, tt.first)
			}
		})
	}
}

func TestPlanTask_DefaultDueTime(t *testing.T) {
	s := New(Options{Now: fixedClock(6, 0), DefaultDueTime: "08:00"})
	got, _ := s.PlanTask(model.Task{ID: "t1", DueDate: "2026-03-10", Reminders: []string{AtTimeOfEvent}})
	if len(got) != 1 {
		t.Fatalf("PlanTask = %d triggers, want 1", len(got))
	}
	if want := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC); !got[0].At.Equal(want) {
		t.Errorf("At = %v, want %v", got[0].At, want)
	}

	// Invalid configured default falls back to 09:00.
	s = New(Options{Now: fixedClock(6, 0), DefaultDueTime: "later"})
	got, _ = s.PlanTask(model.Task{ID: "t1", DueDate: "2026-03-10", Reminders: []string{AtTimeOfEvent}})
	if len(got) != 1 || got[0].At.Hour() != 9 {
		t.Errorf("fallback default due time: got %+v", got)
	}
}

func TestPlanTask_NoDueDate(t *testing.T) {
	s := New(Options{Now: fixedClock(6, 0)})
	got, errs := s.PlanTask(model.Task{ID: "t1", Reminders: []string{ThirtyMinutes}})
	if len(got) != 0 || len(errs) != 0 {
		t.Errorf("PlanTask = %v, %v; want nothing", got, errs)
	}
}

func TestPlanTask_ReportsUnknownSpecifiers(t *testing.T) {
	s := New(Options{Now: fixedClock(6, 0)})
	got, errs := s.PlanTask(model.Task{
		ID:        "t1",
		DueDate:   "2026-03-10",
		DueTime:   "12:00",
		Reminders: []string{"whenever", TenMinutes, "10m"},
	})
	if len(errs) != 1 {
		t.Errorf("errs = %v, want one", errs)
	}
	// "10m" and "10 minutes before" are the same offset.
	if len(got) != 1 || got[0].ID != "task-t1-10m" {
		t.Errorf("PlanTask = %+v", got)
	}
}

func TestPlanHabit_NextOccurrence(t *testing.T) {
	s := New(Options{Now: fixedClock(8, 0)})
	habit := model.Habit{ID: "h1", Title: "Read", Reminders: []string{"07:30", "21:15"}, Streak: 4}
	got, errs := s.PlanHabit(habit)
	if len(errs) != 0 {
		t.Fatal(errs)
	}
	if len(got) != 2 {
		t.Fatalf("PlanHabit = %d triggers, want 2", len(got))
	}
	want := map[string]time.Time{
		"habit-h1-0730": time.Date(2026, 3, 11, 7, 30, 0, 0, time.UTC),
		"habit-h1-2115": time.Date(2026, 3, 10, 21, 15, 0, 0, time.UTC),
	}
	for _, tr := range got {
		if w, ok := want[tr.ID]; !ok || !tr.At.Equal(w) {
			t.Errorf("trigger %s at %v, want %v", tr.ID, tr.At, w)
		}
		if tr.Data["habitId"] != "h1" || tr.Data["kind"] != KindHabit {
			t.Errorf("trigger data = %v", tr.Data)
		}
	}
}

func TestNextDaily_ExactlyNowRollsOver(t *testing.T) {
	now := time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC)
	at, key, err := NextDaily("07:30", now)
	if err != nil {
		t.Fatal(err)
	}
	if key != "0730" || !at.Equal(now.AddDate(0, 0, 1)) {
		t.Errorf("NextDaily = %v %q", at, key)
	}
}

func TestScheduleTask_ReplacesPrevious(t *testing.T) {
	n := newFakeNotifier()
	s := New(Options{Notifier: n, Now: fixedClock(6, 0)})
	task := model.Task{ID: "t1", DueDate: "2026-03-10", DueTime: "12:00", Reminders: []string{OneHour, TenMinutes}}
	if err := s.ScheduleTask(task); err != nil {
		t.Fatal(err)
	}
	task.Reminders = []string{ThirtyMinutes}
	if err := s.ScheduleTask(task); err != nil {
		t.Fatal(err)
	}
	ids, _ := n.ListTriggerIDs()
	if len(ids) != 1 || ids[0] != "task-t1-30m" {
		t.Errorf("registered = %v, want [task-t1-30m]", ids)
	}
}

func TestCancelForTask_OnlyOwnTriggers(t *testing.T) {
	n := newFakeNotifier()
	for _, id := range []string{"task-a-10m", "task-a-0m", "task-a-b-10m", "task-ab-10m", "habit-a-0730"} {
		n.triggers[id] = Trigger{ID: id}
	}
	s := New(Options{Notifier: n})
	if err := s.CancelForTask("a"); err != nil {
		t.Fatal(err)
	}
	ids, _ := n.ListTriggerIDs()
	want := []string{"habit-a-0730", "task-a-b-10m", "task-ab-10m"}
	if len(ids) != len(want) {
		t.Fatalf("remaining = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("remaining = %v, want %v", ids, want)
			break
		}
	}
}

func TestScheduleHabit_ErrorsMatchErrScheduling(t *testing.T) {
	n := newFakeNotifier()
	n.createErr = errors.New("permission denied")
	s := New(Options{Notifier: n, Now: fixedClock(6, 0)})
	err := s.ScheduleHabit(model.Habit{ID: "h1", Reminders: []string{"07:00"}})
	if !errors.Is(err, ErrScheduling) {
		t.Errorf("ScheduleHabit error = %v, want ErrScheduling", err)
	}
}

func TestScheduleTask_ReportsMalformedSpecifiers(t *testing.T) {
	n := newFakeNotifier()
	s := New(Options{Notifier: n, Now: fixedClock(6, 0)})
	err := s.ScheduleTask(model.Task{ID: "t1", DueDate: "2026-03-10", DueTime: "12:00", Reminders: []string{"whenever", ThirtyMinutes}})
	if !errors.Is(err, ErrScheduling) {
		t.Fatalf("ScheduleTask error = %v, want ErrScheduling", err)
	}
	if !strings.Contains(err.Error(), "whenever") {
		t.Errorf("error %q does not name the bad specifier", err)
	}
	ids, _ := n.ListTriggerIDs()
	if len(ids) != 1 || ids[0] != "task-t1-30m" {
		t.Errorf("registered = %v, want [task-t1-30m]", ids)
	}

	err = s.ScheduleHabit(model.Habit{ID: "h1", Reminders: []string{"25:00", "07:30"}})
	if !errors.Is(err, ErrScheduling) {
		t.Fatalf("ScheduleHabit error = %v, want ErrScheduling", err)
	}
	if _, ok := n.triggers["habit-h1-0730"]; !ok {
		t.Errorf("valid habit time not registered: %v", n.triggers)
	}
}

func TestScheduler_NilNotifier(t *testing.T) {
	s := New(Options{Now: fixedClock(6, 0)})
	if err := s.ScheduleHabit(model.Habit{ID: "h1", Reminders: []string{"07:00"}}); err != nil {
		t.Errorf("ScheduleHabit with no notifier: %v", err)
	}
	if err := s.CancelForTask("t1"); err != nil {
		t.Errorf("CancelForTask with no notifier: %v", err)
	}
}
