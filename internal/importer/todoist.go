package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"dailies/internal/model"
)

// TodoistImporter reads Todoist CSV exports.
type TodoistImporter struct{}

// Name returns the importer name.
func (t *TodoistImporter) Name() string {
	return "todoist"
}

// Preview parses a Todoist CSV export. Rows other than tasks (notes,
// sections) and tasks without content are counted as skipped.
func (t *TodoistImporter) Preview(reader io.Reader) ([]PreviewTask, int, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true
	csvReader.ReuseRecord = true

	header, err := csvReader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff") // UTF-8 BOM
		}
		colIndex[strings.ToUpper(strings.TrimSpace(col))] = i
	}
	for _, col := range []string{"TYPE", "CONTENT"} {
		if _, ok := colIndex[col]; !ok {
			return nil, 0, fmt.Errorf("missing required column: %s", col)
		}
	}
	field := func(record []string, col string) string {
		if idx, ok := colIndex[col]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	var tasks []PreviewTask
	skipped := 0
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		if !strings.EqualFold(field(record, "TYPE"), "task") {
			skipped++
			continue
		}
		task := PreviewTask{
			Title:    field(record, "CONTENT"),
			Priority: mapTodoistPriority(field(record, "PRIORITY")),
			Project:  field(record, "PROJECT"),
		}
		if task.Title == "" {
			skipped++
			continue
		}
		if due, hasTime, ok := parseTodoistDate(field(record, "DATE")); ok {
			task.DueDate = model.FormatDate(due)
			if hasTime {
				task.DueTime = due.Format(model.TimeLayout)
			}
		}
		tasks = append(tasks, task)
	}
	return tasks, skipped, nil
}

// mapTodoistPriority keeps Todoist's 1 (urgent) to 4 (normal) scale, which
// matches ours. Anything else is left unset.
func mapTodoistPriority(priority string) int {
	switch strings.TrimSpace(priority) {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	default:
		return 0
	}
}

var todoistDateFormats = []struct {
	layout  string
	hasTime bool
}{
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04", true},
	{"2006-01-02", false},
	{"Jan 2 2006 15:04", true},
	{"Jan 2 2006", false},
	{"Jan 2, 2006", false},
	{"2 Jan 2006", false},
	{"January 2, 2006", false},
	{"01/02/2006", false},
	{"02/01/2006", false},
}

// parseTodoistDate parses the date formats seen in Todoist exports, in local
// time.
func parseTodoistDate(s string) (time.Time, bool, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	for _, f := range todoistDateFormats {
		if t, err := time.ParseInLocation(f.layout, s, time.Local); err == nil {
			return t, f.hasTime, true
		}
	}
	return time.Time{}, false, false
}
