// Package widget projects the current day's tasks and habits into the small
// JSON payload shown by an at-a-glance home-screen or desktop widget.
package widget

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"dailies/internal/fsutil"
	"dailies/internal/model"
)

// Item statuses and types.
const (
	StatusDone    = "done"
	StatusPending = "pending"

	TypeTask  = "task"
	TypeHabit = "habit"
)

// DataFile is where FileBridge writes, relative to the data directory.
const DataFile = "widget/today.json"

// Item is one row of the widget.
type Item struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

// Payload is the document handed to the bridge.
type Payload struct {
	Date  string `json:"date"`
	Items []Item `json:"items"`
}

// Project returns tasks due on today followed by every habit, each with its
// status for today. Tasks keep their stored order; so do habits.
func Project(tasks []model.Task, habits []model.Habit, today string) []Item {
	items := make([]Item, 0, len(tasks)+len(habits))
	for _, t := range tasks {
		if t.DueDate != today {
			continue
		}
		items = append(items, Item{ID: t.ID, Title: t.Title, Status: status(t.Completed), Type: TypeTask})
	}
	for i := range habits {
		h := &habits[i]
		items = append(items, Item{ID: h.ID, Title: h.Title, Status: status(h.IsDoneOn(today)), Type: TypeHabit})
	}
	return items
}

func status(done bool) string {
	if done {
		return StatusDone
	}
	return StatusPending
}

// Bridge receives the serialized payload. Implementations are platform
// specific and may be unavailable.
type Bridge interface {
	SetData(data string) error
}

// Sync pushes projections to a Bridge. The zero value and a nil *Sync are
// usable and do nothing.
type Sync struct {
	bridge Bridge
	log    *zap.Logger
}

// NewSync returns a Sync that delivers to bridge.
func NewSync(bridge Bridge, log *zap.Logger) *Sync {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sync{bridge: bridge, log: log}
}

// Push projects and delivers the current state. Delivery is best effort:
// failures are logged and otherwise ignored.
func (s *Sync) Push(tasks []model.Task, habits []model.Habit, today string) {
	if s == nil || s.bridge == nil {
		return
	}
	data, err := json.Marshal(Payload{Date: today, Items: Project(tasks, habits, today)})
	if err != nil {
		s.log.Warn("encode widget payload", zap.Error(err))
		return
	}
	if err := s.bridge.SetData(string(data)); err != nil {
		s.log.Warn("widget bridge unavailable", zap.Error(err))
	}
}

// FileBridge writes the payload to a file that a desktop widget (conky,
// a status bar script, a shortcut) can poll.
type FileBridge struct {
	Path string
}

// NewFileBridge returns a bridge writing to path, or to DataFile under the
// data directory when path is empty.
func NewFileBridge(dataDir, path string) *FileBridge {
	if path == "" {
		path = filepath.Join(dataDir, DataFile)
	}
	return &FileBridge{Path: path}
}

// SetData replaces the file contents atomically.
func (b *FileBridge) SetData(data string) error {
	if err := os.MkdirAll(filepath.Dir(b.Path), fsutil.DirPerm); err != nil {
		return fmt.Errorf("create widget directory: %w", err)
	}
	return fsutil.WriteFileAtomic(b.Path, []byte(data), fsutil.FilePerm)
}
