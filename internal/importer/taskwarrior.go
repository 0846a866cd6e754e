package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"dailies/internal/model"
)

// TaskwarriorImporter reads `task export` output, either a JSON array or
// newline-delimited JSON.
type TaskwarriorImporter struct {
	// Location converts due instants to local dates; nil means time.Local.
	Location *time.Location
}

type taskwarriorTask struct {
	Description string `json:"description"`
	Status      string `json:"status"`
	Project     string `json:"project"`
	Priority    string `json:"priority"`
	Due         string `json:"due"`
	Entry       string `json:"entry"`
	End         string `json:"end"`
	UUID        string `json:"uuid"`
}

// Name returns the importer name.
func (t *TaskwarriorImporter) Name() string {
	return "taskwarrior"
}

// Preview parses a Taskwarrior export. Deleted and empty tasks are counted
// as skipped.
func (t *TaskwarriorImporter) Preview(reader io.Reader) ([]PreviewTask, int, error) {
	br := bufio.NewReader(reader)
	prefix, first, err := readFirstNonSpaceByte(br)
	if err != nil {
		if err == io.EOF {
			return nil, 0, fmt.Errorf("empty input")
		}
		return nil, 0, fmt.Errorf("failed to read input: %w", err)
	}

	var raw []taskwarriorTask
	r := io.MultiReader(bytes.NewReader(prefix), br)
	if first == '[' {
		raw, err = parseTaskwarriorJSONArray(r)
	} else {
		raw, err = parseTaskwarriorNDJSON(r)
	}
	if err != nil {
		return nil, 0, err
	}

	loc := t.Location
	if loc == nil {
		loc = time.Local
	}
	var tasks []PreviewTask
	skipped := 0
	for _, tw := range raw {
		task, ok := previewFromTaskwarrior(tw, loc)
		if !ok {
			skipped++
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, skipped, nil
}

const maxTaskwarriorNDJSONLineBytes = 4 << 20 // 4MiB

func readFirstNonSpaceByte(r *bufio.Reader) ([]byte, byte, error) {
	var prefix []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				// Empty or whitespace only.
				return nil, 0, io.EOF
			}
			return prefix, 0, err
		}
		prefix = append(prefix, b)
		if !isSpaceByte(b) {
			return prefix, b, nil
		}
	}
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

func parseTaskwarriorJSONArray(r io.Reader) ([]taskwarriorTask, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("failed to parse JSON array: expected '['")
	}

	var tasks []taskwarriorTask
	for idx := 1; dec.More(); idx++ {
		var tw taskwarriorTask
		if err := dec.Decode(&tw); err != nil {
			return nil, fmt.Errorf("failed to decode task %d: %w", idx, err)
		}
		tasks = append(tasks, tw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	}
	return tasks, nil
}

func parseTaskwarriorNDJSON(r io.Reader) ([]taskwarriorTask, error) {
	br := bufio.NewReader(r)
	var tasks []taskwarriorTask
	var lineNo int
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > maxTaskwarriorNDJSONLineBytes {
			return nil, fmt.Errorf("taskwarrior NDJSON line %d exceeds %d bytes", lineNo+1, maxTaskwarriorNDJSONLineBytes)
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read NDJSON: %w", err)
		}
		if len(line) == 0 && err == io.EOF {
			break
		}

		lineNo++
		if line = bytes.TrimSpace(line); len(line) > 0 {
			var tw taskwarriorTask
			if uerr := json.Unmarshal(line, &tw); uerr != nil {
				return nil, fmt.Errorf("invalid JSON on line %d: %w", lineNo, uerr)
			}
			tasks = append(tasks, tw)
		}
		if err == io.EOF {
			break
		}
	}
	if lineNo == 0 {
		return nil, fmt.Errorf("empty input")
	}
	return tasks, nil
}

func previewFromTaskwarrior(tw taskwarriorTask, loc *time.Location) (PreviewTask, bool) {
	title := strings.TrimSpace(tw.Description)
	if tw.Status == "deleted" || title == "" {
		return PreviewTask{}, false
	}

	task := PreviewTask{
		Title:    title,
		Project:  strings.TrimSpace(tw.Project),
		Priority: mapTaskwarriorPriority(tw.Priority),
		Done:     tw.Status == "completed",
	}
	if due, ok := parseTaskwarriorDate(tw.Due); ok {
		due = due.In(loc)
		task.DueDate = model.FormatDate(due)
		// Taskwarrior stores date-only dues as local midnight.
		if due.Hour() != 0 || due.Minute() != 0 {
			task.DueTime = due.Format(model.TimeLayout)
		}
	}
	return task, true
}

// mapTaskwarriorPriority maps H/M/L onto 1-3; no priority stays unset.
func mapTaskwarriorPriority(priority string) int {
	switch strings.ToUpper(strings.TrimSpace(priority)) {
	case "H":
		return 1
	case "M":
		return 2
	case "L":
		return 3
	default:
		return 0
	}
}

// parseTaskwarriorDate parses Taskwarrior's ISO 8601 basic format
// (20140928T211124Z) and a few extended variants, all as UTC.
func parseTaskwarriorDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		"20060102T150405Z",
		"20060102T150405",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
