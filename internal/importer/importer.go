// Package importer migrates tasks from other productivity tools (Todoist,
// Taskwarrior) into the active profile.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"dailies/internal/app"
	"dailies/internal/model"
)

// Sink receives imported tasks. *app.Store satisfies it.
type Sink interface {
	AddTask(model.Task) (model.Task, error)
	ToggleTask(id string) (model.Task, error)
	AddLabel(name string) (model.Label, error)
}

// ImportResult contains statistics about an import operation.
type ImportResult struct {
	Imported int      // tasks added
	Skipped  int      // notes, deleted and empty rows
	Errors   []string // per-task failures
}

// PreviewTask is a parsed task before it is added.
type PreviewTask struct {
	Title    string
	Project  string
	Priority int    // 1 (highest) to 4, 0 when the source has none
	DueDate  string // YYYY-MM-DD
	DueTime  string // HH:mm
	Done     bool
}

// Task converts the preview into a task for Sink.AddTask.
func (p PreviewTask) Task() model.Task {
	return model.Task{
		Title:    p.Title,
		Category: p.Project,
		Priority: p.Priority,
		DueDate:  p.DueDate,
		DueTime:  p.DueTime,
	}
}

// Importer parses one export format.
type Importer interface {
	// Preview parses tasks without importing them.
	Preview(r io.Reader) ([]PreviewTask, int, error)

	// Name returns the format name (e.g. "todoist").
	Name() string
}

// Import parses r with imp and adds every task to sink. Projects become
// labels. Tasks that were already done in the source are completed after
// being added. A reminder that could not be scheduled does not fail the task.
func Import(imp Importer, r io.Reader, sink Sink) (*ImportResult, error) {
	tasks, skipped, err := imp.Preview(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Skipped: skipped}
	labels := map[string]string{}
	for _, pt := range tasks {
		task := pt.Task()
		if p := strings.TrimSpace(pt.Project); p != "" {
			name, ok := labels[strings.ToLower(p)]
			if !ok {
				label, err := sink.AddLabel(p)
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("%s: label %q: %v", pt.Title, p, err))
					continue
				}
				name = label.Name
				labels[strings.ToLower(p)] = name
			}
			task.Category = name
		}

		added, err := sink.AddTask(task)
		if err != nil && !errors.Is(err, app.ErrScheduling) {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", pt.Title, err))
			continue
		}
		if pt.Done {
			if _, err := sink.ToggleTask(added.ID); err != nil && !errors.Is(err, app.ErrScheduling) {
				result.Errors = append(result.Errors, fmt.Sprintf("failed to mark %s as complete: %v", pt.Title, err))
			}
		}
		result.Imported++
	}
	return result, nil
}

// GetImporter returns the importer for format, or nil.
func GetImporter(format string) Importer {
	switch strings.ToLower(format) {
	case "todoist":
		return &TodoistImporter{}
	case "taskwarrior":
		return &TaskwarriorImporter{}
	default:
		return nil
	}
}

// SupportedFormats returns the list of supported import formats.
func SupportedFormats() []string {
	return []string{"todoist", "taskwarrior"}
}
