package widget

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dailies/internal/model"
)

func TestProject(t *testing.T) {
	const today = "2026-03-10"
	tasks := []model.Task{
		{ID: "t1", Title: "due today", DueDate: today},
		{ID: "t2", Title: "tomorrow", DueDate: "2026-03-11"},
		{ID: "t3", Title: "done today", DueDate: today, Completed: true},
		{ID: "t4", Title: "no date"},
	}
	habits := []model.Habit{
		{ID: "h1", Title: "read", CompletedDates: []string{"2026-03-09", today}},
		{ID: "h2", Title: "run", CompletedDates: []string{"2026-03-09"}},
	}

	got := Project(tasks, habits, today)
	want := []Item{
		{ID: "t1", Title: "due today", Status: StatusPending, Type: TypeTask},
		{ID: "t3", Title: "done today", Status: StatusDone, Type: TypeTask},
		{ID: "h1", Title: "read", Status: StatusDone, Type: TypeHabit},
		{ID: "h2", Title: "run", Status: StatusPending, Type: TypeHabit},
	}
	if len(got) != len(want) {
		t.Fatalf("Project() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestProject_Empty(t *testing.T) {
	got := Project(nil, nil, "2026-03-10")
	if got == nil || len(got) != 0 {
		t.Errorf("Project(nil, nil) = %#v, want empty slice", got)
	}
}

type failingBridge struct{ calls int }

func (f *failingBridge) SetData(string) error {
	f.calls++
	return errors.New("no widget host")
}

func TestSync_PushSwallowsBridgeErrors(t *testing.T) {
	b := &failingBridge{}
	NewSync(b, nil).Push(nil, []model.Habit{{ID: "h1"}}, "2026-03-10")
	if b.calls != 1 {
		t.Errorf("SetData calls = %d, want 1", b.calls)
	}

	var nilSync *Sync
	nilSync.Push(nil, nil, "2026-03-10")
}

func TestFileBridge(t *testing.T) {
	dir := t.TempDir()
	b := NewFileBridge(dir, "")
	s := NewSync(b, nil)
	s.Push([]model.Task{{ID: "t1", Title: "x", DueDate: "2026-03-10"}}, nil, "2026-03-10")

	data, err := os.ReadFile(filepath.Join(dir, DataFile))
	if err != nil {
		t.Fatal(err)
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatal(err)
	}
	if p.Date != "2026-03-10" || len(p.Items) != 1 || p.Items[0].ID != "t1" {
		t.Errorf("payload = %+v", p)
	}
}
