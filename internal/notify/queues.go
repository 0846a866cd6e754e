package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"dailies/internal/reminders"
)

// Queues is the set of per-profile queues under one data directory.
type Queues struct {
	dir string
	log *zap.Logger
}

// NewQueues returns the queue set stored under the data directory dir.
func NewQueues(dir string, log *zap.Logger) *Queues {
	if log == nil {
		log = zap.NewNop()
	}
	return &Queues{dir: dir, log: log}
}

// Dir returns the directory holding the queue files.
func (s *Queues) Dir() string { return filepath.Join(s.dir, QueueDir) }

// Profile returns the queue of one profile.
func (s *Queues) Profile(profileID string) *Queue {
	return NewQueue(s.dir, profileID, s.log)
}

// All returns a queue for every profile that has a queue file, ordered by
// profile id.
func (s *Queues) All() ([]*Queue, error) {
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read queue directory: %w", err)
	}
	var out []*Queue
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || id == "" || e.IsDir() {
			continue
		}
		out = append(out, s.Profile(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].profileID < out[j].profileID })
	return out, nil
}

// Pending returns the pending triggers of every profile ordered by fire time.
func (s *Queues) Pending() ([]reminders.Trigger, error) {
	queues, err := s.All()
	if err != nil {
		return nil, err
	}
	var out []reminders.Trigger
	for _, q := range queues {
		pending, err := q.Pending()
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", q.profileID, err)
		}
		out = append(out, pending...)
	}
	sortTriggers(out)
	return out, nil
}

// Remove deletes a profile's queue and its lock file. A missing queue is not
// an error.
func (s *Queues) Remove(profileID string) error {
	q := s.Profile(profileID)
	if err := os.Remove(q.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove queue of %s: %w", profileID, err)
	}
	_ = os.Remove(q.path + ".lock")
	return nil
}
