package app

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dailies/internal/model"
	"dailies/internal/reminders"
	"dailies/internal/storage"
)

const maxTitleLen = 500

// TaskPatch lists the task fields to change. Nil fields are left as they are.
type TaskPatch struct {
	Title     *string
	Priority  *int
	Category  *string
	DueDate   *string // "" clears
	DueTime   *string // "" clears
	Duration  *int
	Reminders *[]string
	Subtasks  *[]model.Subtask
}

func (p TaskPatch) touchesSchedule() bool {
	return p.DueDate != nil || p.DueTime != nil || p.Reminders != nil
}

// Tasks returns a copy of the active profile's tasks.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil
	}
	out := make([]model.Task, len(s.doc.Tasks))
	for i, t := range s.doc.Tasks {
		out[i] = cloneTask(t)
	}
	return out
}

// Task returns one task by id.
func (s *Store) Task(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return model.Task{}, err
	}
	i := s.taskIndex(id)
	if i < 0 {
		return model.Task{}, notFound("task", id)
	}
	return cloneTask(s.doc.Tasks[i]), nil
}

// AddTask stores a new open task built from in. The id, completion state
// and creation time are assigned here; unset priority and category fall back
// to the lowest priority and the default label. Reminders are registered when
// the task has a due date.
func (s *Store) AddTask(in model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return model.Task{}, err
	}

	t := cloneTask(in)
	t.ID = uuid.NewString()
	t.Completed = false
	t.CompletedAt = nil
	t.CreatedAt = s.now()
	if t.Priority == 0 {
		t.Priority = model.PriorityLowest
	}
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = model.DefaultCategory
	}
	normalizeTask(&t)
	if err := validateTask(t); err != nil {
		return model.Task{}, err
	}

	s.doc.Tasks = append(s.doc.Tasks, t)
	if err := s.save(storage.SaveContext{Operation: "add", ItemType: "task", ItemName: t.Title}); err != nil {
		return cloneTask(t), err
	}
	s.log.Debug("task added", zap.String("task", t.ID))

	if s.scheduler != nil && t.DueDate != "" && len(t.Reminders) > 0 {
		return cloneTask(t), s.schedulingResult(s.scheduler.ScheduleTask(t))
	}
	return cloneTask(t), nil
}

// UpdateTask applies patch to the task. When the due date, due time or
// reminders change, the task's reminders are rebuilt.
func (s *Store) UpdateTask(id string, patch TaskPatch) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return model.Task{}, err
	}
	i := s.taskIndex(id)
	if i < 0 {
		return model.Task{}, notFound("task", id)
	}

	t := cloneTask(s.doc.Tasks[i])
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Category != nil {
		t.Category = strings.TrimSpace(*patch.Category)
		if t.Category == "" {
			t.Category = model.DefaultCategory
		}
	}
	if patch.DueDate != nil {
		t.DueDate = *patch.DueDate
	}
	if patch.DueTime != nil {
		t.DueTime = *patch.DueTime
	}
	if patch.Duration != nil {
		t.Duration = *patch.Duration
	}
	if patch.Reminders != nil {
		t.Reminders = slices.Clone(*patch.Reminders)
	}
	if patch.Subtasks != nil {
		t.Subtasks = slices.Clone(*patch.Subtasks)
	}
	normalizeTask(&t)
	if err := validateTask(t); err != nil {
		return model.Task{}, err
	}

	s.doc.Tasks[i] = t
	if err := s.save(storage.SaveContext{Operation: "update", ItemType: "task", ItemName: t.Title}); err != nil {
		return cloneTask(t), err
	}

	if s.scheduler != nil && patch.touchesSchedule() && !t.Completed {
		return cloneTask(t), s.schedulingResult(s.scheduler.ScheduleTask(t))
	}
	return cloneTask(t), nil
}

// ToggleTask flips the task's completion. Completing a task cancels its
// pending reminders; reopening it registers them again.
func (s *Store) ToggleTask(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return model.Task{}, err
	}
	i := s.taskIndex(id)
	if i < 0 {
		return model.Task{}, notFound("task", id)
	}

	t := &s.doc.Tasks[i]
	t.Completed = !t.Completed
	op := "reopen"
	if t.Completed {
		now := s.now()
		t.CompletedAt = &now
		op = "complete"
	} else {
		t.CompletedAt = nil
	}
	out := cloneTask(*t)

	if err := s.save(storage.SaveContext{Operation: op, ItemType: "task", ItemName: out.Title}); err != nil {
		return out, err
	}
	if s.scheduler == nil {
		return out, nil
	}
	if out.Completed {
		return out, s.schedulingResult(s.scheduler.CancelForTask(out.ID))
	}
	return out, s.schedulingResult(s.scheduler.ScheduleTask(out))
}

// DeleteTask removes the task and cancels all of its reminders.
func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.active(); err != nil {
		return err
	}
	i := s.taskIndex(id)
	if i < 0 {
		return notFound("task", id)
	}

	title := s.doc.Tasks[i].Title
	s.doc.Tasks = slices.Delete(s.doc.Tasks, i, i+1)
	if err := s.save(storage.SaveContext{Operation: "delete", ItemType: "task", ItemName: title}); err != nil {
		return err
	}
	if s.scheduler != nil {
		return s.schedulingResult(s.scheduler.CancelForTask(id))
	}
	return nil
}

func (s *Store) taskIndex(id string) int {
	return slices.IndexFunc(s.doc.Tasks, func(t model.Task) bool { return t.ID == id })
}

func normalizeTask(t *model.Task) {
	t.Title = strings.TrimSpace(t.Title)
	t.DueDate = strings.TrimSpace(t.DueDate)
	t.DueTime = strings.TrimSpace(t.DueTime)
	if t.Reminders == nil {
		t.Reminders = []string{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []model.Subtask{}
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == "" {
			t.Subtasks[i].ID = uuid.NewString()
		}
	}
}

func validateTask(t model.Task) error {
	switch {
	case t.Title == "":
		return invalid("task title is required")
	case len(t.Title) > maxTitleLen:
		return invalid("task title too long (max %d)", maxTitleLen)
	case t.Priority < model.PriorityHighest || t.Priority > model.PriorityLowest:
		return invalid("priority must be between %d and %d", model.PriorityHighest, model.PriorityLowest)
	case t.Duration < 0:
		return invalid("duration must not be negative")
	}
	if t.DueDate != "" {
		if _, err := model.ParseDate(t.DueDate, time.UTC); err != nil {
			return invalid("%v", err)
		}
	}
	if t.DueTime != "" {
		if _, _, err := model.ParseClock(t.DueTime); err != nil {
			return invalid("%v", err)
		}
	}
	for _, r := range t.Reminders {
		if _, err := reminders.ParseOffset(r); err != nil {
			return invalid("%v", err)
		}
	}
	for _, st := range t.Subtasks {
		if strings.TrimSpace(st.Title) == "" {
			return invalid("subtask title is required")
		}
	}
	return nil
}

func cloneTask(t model.Task) model.Task {
	t.Reminders = slices.Clone(t.Reminders)
	t.Subtasks = slices.Clone(t.Subtasks)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}
