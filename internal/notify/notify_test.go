package notify

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"dailies/internal/reminders"
)

type recordingDesktop struct {
	mu    sync.Mutex
	sent  []string
	sound bool
}

func (r *recordingDesktop) Send(title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, title)
	return nil
}

func (r *recordingDesktop) SendWithSound(title, message string) error {
	r.mu.Lock()
	r.sound = true
	r.mu.Unlock()
	return r.Send(title, message)
}

func (r *recordingDesktop) IsSupported() bool { return true }

func (r *recordingDesktop) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func TestNewDesktop(t *testing.T) {
	d := NewDesktop()
	if d == nil {
		t.Fatal("NewDesktop() returned nil")
	}
	if runtime.GOOS != "darwin" && runtime.GOOS != "linux" && d.IsSupported() {
		t.Errorf("IsSupported() should be false on %s", runtime.GOOS)
	}
}

// TestDesktopSend shows a real notification and only runs on request.
func TestDesktopSend(t *testing.T) {
	if os.Getenv("RUN_NOTIFY_TESTS") != "1" {
		t.Skip("set RUN_NOTIFY_TESTS=1 to show a real notification")
	}
	d := NewDesktop()
	if !d.IsSupported() {
		t.Skip("notifications not supported on this platform")
	}
	if err := d.Send("dailies test", "This is a test notification"); err != nil {
		t.Errorf("Send() error: %v", err)
	}
}

func TestEscapeAppleScript(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello", "Hello"},
		{`Hello "World"`, `Hello \"World\"`},
		{`Path\to\file`, `Path\\to\\file`},
		{`Mix "quote" and \slash`, `Mix \"quote\" and \\slash`},
	}
	for _, tc := range tests {
		if got := escapeAppleScript(tc.input); got != tc.expected {
			t.Errorf("escapeAppleScript(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestQueue_CreateCancelList(t *testing.T) {
	q := NewQueue(t.TempDir(), "p1", nil)
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	ids, err := q.ListTriggerIDs()
	if err != nil || len(ids) != 0 {
		t.Fatalf("empty queue: ids=%v err=%v", ids, err)
	}

	for _, id := range []string{"task-a-0m", "task-a-30m", "habit-h-0730"} {
		if err := q.CreateTrigger(reminders.Trigger{ID: id, At: at}); err != nil {
			t.Fatal(err)
		}
	}
	// Re-registering an id replaces it.
	if err := q.CreateTrigger(reminders.Trigger{ID: "task-a-0m", At: at.Add(time.Hour), Title: "later"}); err != nil {
		t.Fatal(err)
	}
	if err := q.Cancel("task-a-30m"); err != nil {
		t.Fatal(err)
	}
	if err := q.Cancel("missing"); err != nil {
		t.Fatalf("Cancel(missing) error = %v", err)
	}

	pending, err := q.Pending()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].ID != "habit-h-0730" || pending[1].Title != "later" {
		t.Errorf("Pending() = %+v", pending)
	}
}

func TestQueue_TakeDue(t *testing.T) {
	q := NewQueue(t.TempDir(), "p1", nil)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for id, at := range map[string]time.Time{
		"due-early": now.Add(-time.Minute),
		"due-now":   now,
		"future":    now.Add(time.Minute),
	} {
		if err := q.CreateTrigger(reminders.Trigger{ID: id, At: at}); err != nil {
			t.Fatal(err)
		}
	}

	due, err := q.TakeDue(now)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 || due[0].ID != "due-early" || due[1].ID != "due-now" {
		t.Errorf("TakeDue() = %+v", due)
	}
	ids, _ := q.ListTriggerIDs()
	if len(ids) != 1 || ids[0] != "future" {
		t.Errorf("remaining = %v, want [future]", ids)
	}
}

func TestQueue_CorruptFileStartsOver(t *testing.T) {
	dir := t.TempDir()
	q := NewQueue(dir, "p1", nil)
	if err := os.MkdirAll(filepath.Dir(q.Path()), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(q.Path(), []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := q.ListTriggerIDs(); err == nil {
		t.Error("ListTriggerIDs() on corrupt queue should fail")
	}
	if err := q.CreateTrigger(reminders.Trigger{ID: "x", At: time.Now()}); err != nil {
		t.Fatalf("CreateTrigger() error = %v", err)
	}
	if ids, err := q.ListTriggerIDs(); err != nil || len(ids) != 1 {
		t.Errorf("after rewrite: ids=%v err=%v", ids, err)
	}
}

func TestQueues_ProfilesAreIsolated(t *testing.T) {
	set := NewQueues(t.TempDir(), nil)
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	// An imported profile keeps its task ids, so both queues hold the same id.
	a, b := set.Profile("a"), set.Profile("b")
	for _, q := range []*Queue{a, b} {
		if err := q.CreateTrigger(reminders.Trigger{ID: "task-t1-30m", Title: q.ProfileID(), At: at}); err != nil {
			t.Fatal(err)
		}
	}

	if err := b.Cancel("task-t1-30m"); err != nil {
		t.Fatal(err)
	}
	if ids, _ := a.ListTriggerIDs(); len(ids) != 1 {
		t.Errorf("profile a ids = %v, want [task-t1-30m]", ids)
	}
	if ids, _ := b.ListTriggerIDs(); len(ids) != 0 {
		t.Errorf("profile b ids = %v, want none", ids)
	}

	queues, err := set.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(queues) != 2 || queues[0].ProfileID() != "a" || queues[1].ProfileID() != "b" {
		t.Errorf("All() = %d queues", len(queues))
	}
	pending, err := set.Pending()
	if err != nil || len(pending) != 1 || pending[0].Title != "a" {
		t.Errorf("Pending() = %+v, err %v", pending, err)
	}

	if err := set.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if err := set.Remove("a"); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
	if _, err := os.Stat(a.Path()); !os.IsNotExist(err) {
		t.Errorf("queue file still present: %v", err)
	}
}

func TestQueues_AllWithoutDirectory(t *testing.T) {
	queues, err := NewQueues(filepath.Join(t.TempDir(), "none"), nil).All()
	if err != nil || len(queues) != 0 {
		t.Errorf("All() = %v, %v", queues, err)
	}
}

func TestDispatcher_Tick(t *testing.T) {
	set := NewQueues(t.TempDir(), nil)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	triggers := map[string][]reminders.Trigger{
		"p1": {
			{ID: "task-a-0m", Title: "due", At: now.Add(-time.Minute)},
			{ID: "task-b-0m", Title: "stale", At: now.Add(-24 * time.Hour)},
			{ID: "task-c-0m", Title: "future", At: now.Add(time.Hour)},
		},
		"p2": {
			{ID: "task-a-0m", Title: "other profile", At: now},
		},
	}
	for profile, list := range triggers {
		for _, tr := range list {
			if err := set.Profile(profile).CreateTrigger(tr); err != nil {
				t.Fatal(err)
			}
		}
	}

	desk := &recordingDesktop{}
	var fired []string
	d := NewDispatcher(DispatcherOptions{
		Queues:  set,
		Desktop: desk,
		Sound:   true,
		Now:     func() time.Time { return now },
		OnFired: func(profileID string, tr reminders.Trigger) { fired = append(fired, profileID+"/"+tr.ID) },
	})

	if n := d.Tick(); n != 2 {
		t.Errorf("Tick() = %d, want 2", n)
	}
	if got := desk.titles(); len(got) != 2 || got[0] != "due" || got[1] != "other profile" {
		t.Errorf("delivered = %v, want [due other profile]", got)
	}
	if !desk.sound {
		t.Error("expected SendWithSound when Sound is set")
	}
	want := []string{"p1/task-b-0m", "p1/task-a-0m", "p2/task-a-0m"}
	if len(fired) != len(want) {
		t.Fatalf("OnFired calls = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("OnFired[%d] = %s, want %s", i, fired[i], want[i])
		}
	}
	if n := d.Tick(); n != 0 {
		t.Errorf("second Tick() = %d, want 0", n)
	}
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	set := NewQueues(t.TempDir(), nil)
	if err := set.Profile("p1").CreateTrigger(reminders.Trigger{ID: "now", Title: "now", At: time.Now().Add(-time.Second)}); err != nil {
		t.Fatal(err)
	}
	desk := &recordingDesktop{}
	d := NewDispatcher(DispatcherOptions{Queues: set, Desktop: desk, Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for len(desk.titles()) == 0 {
		select {
		case <-deadline:
			t.Fatal("initial tick did not deliver")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
