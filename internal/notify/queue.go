package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"dailies/internal/fsutil"
	"dailies/internal/reminders"
)

// QueueDir holds one pending-trigger file per profile, relative to the data
// directory.
const QueueDir = "notifications"

// Queue is the on-disk set of triggers registered for one profile. It
// implements reminders.Notifier so the scheduler can register and cancel
// triggers from any process, while a long-running dispatcher delivers them.
// Trigger ids are only unique within a profile: an imported copy keeps its
// task and habit ids.
type Queue struct {
	profileID string
	path      string
	log       *zap.Logger
}

var _ reminders.Notifier = (*Queue)(nil)

// NewQueue returns the queue of profileID stored under the data directory dir.
func NewQueue(dir, profileID string, log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		profileID: profileID,
		path:      filepath.Join(dir, QueueDir, profileID+".json"),
		log:       log,
	}
}

// Path returns the queue file location.
func (q *Queue) Path() string { return q.path }

// ProfileID returns the profile the queue belongs to.
func (q *Queue) ProfileID() string { return q.profileID }

// CreateTrigger registers t, replacing any trigger with the same id.
func (q *Queue) CreateTrigger(t reminders.Trigger) error {
	if t.ID == "" {
		return fmt.Errorf("trigger has no id")
	}
	if q.profileID == "" {
		return fmt.Errorf("queue has no profile")
	}
	return q.update(func(pending map[string]reminders.Trigger) {
		pending[t.ID] = t
	})
}

// Cancel removes the trigger with the given id. Unknown ids are ignored.
func (q *Queue) Cancel(id string) error {
	return q.update(func(pending map[string]reminders.Trigger) {
		delete(pending, id)
	})
}

// ListTriggerIDs returns the ids of all pending triggers, sorted.
func (q *Queue) ListTriggerIDs() ([]string, error) {
	pending, err := q.read()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Pending returns all pending triggers ordered by fire time.
func (q *Queue) Pending() ([]reminders.Trigger, error) {
	pending, err := q.read()
	if err != nil {
		return nil, err
	}
	return sorted(pending), nil
}

// TakeDue removes and returns every trigger due at or before now.
func (q *Queue) TakeDue(now time.Time) ([]reminders.Trigger, error) {
	var due []reminders.Trigger
	err := q.update(func(pending map[string]reminders.Trigger) {
		for id, t := range pending {
			if !t.At.After(now) {
				due = append(due, t)
				delete(pending, id)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	sortTriggers(due)
	return due, nil
}

func (q *Queue) update(fn func(map[string]reminders.Trigger)) error {
	if err := os.MkdirAll(filepath.Dir(q.path), fsutil.DirPerm); err != nil {
		return fmt.Errorf("create queue directory: %w", err)
	}
	return fsutil.WithLock(q.path, func() error {
		pending, err := q.read()
		if err != nil {
			q.log.Warn("discarding unreadable notification queue", zap.String("path", q.path), zap.Error(err))
			pending = map[string]reminders.Trigger{}
		}
		fn(pending)
		return fsutil.WriteJSONAtomic(q.path, sorted(pending), fsutil.FilePerm)
	})
}

func (q *Queue) read() (map[string]reminders.Trigger, error) {
	out := map[string]reminders.Trigger{}
	data, err := os.ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("read notification queue: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	var list []reminders.Trigger
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse notification queue: %w", err)
	}
	for _, t := range list {
		out[t.ID] = t
	}
	return out, nil
}

func sorted(pending map[string]reminders.Trigger) []reminders.Trigger {
	out := make([]reminders.Trigger, 0, len(pending))
	for _, t := range pending {
		out = append(out, t)
	}
	sortTriggers(out)
	return out
}

func sortTriggers(ts []reminders.Trigger) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].At.Equal(ts[j].At) {
			return ts[i].At.Before(ts[j].At)
		}
		return ts[i].ID < ts[j].ID
	})
}
