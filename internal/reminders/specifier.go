// Package reminders turns task and habit reminder specifiers into concrete
// notification triggers and keeps the registered set in step with the data.
package reminders

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Canonical specifiers offered by the task editor.
const (
	AtTimeOfEvent = "At time of event"
	TenMinutes    = "10 minutes before"
	ThirtyMinutes = "30 minutes before"
	OneHour       = "1 hour before"
	OneDay        = "1 day before"
)

const maxOffsetMinutes = 365 * 24 * 60

var (
	tokenRe  = regexp.MustCompile(`^(\d+)\s*([mhd])$`)
	phraseRe = regexp.MustCompile(`^(\d+)\s+(minute|minutes|min|mins|hour|hours|hr|hrs|day|days)\s+before$`)
)

// Offset is a parsed task reminder: how long before the due instant it
// fires, plus a stable key used in trigger ids.
type Offset struct {
	Before time.Duration
	Key    string // e.g. "0m", "30m", "60m"; never contains '-'
}

// ParseOffset parses a task reminder specifier. It accepts the canonical
// phrases ("30 minutes before", "At time of event"), the generic form
// "<N> minutes|hours|days before", and raw tokens like "10m", "1h", "1d".
func ParseOffset(spec string) (Offset, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	if s == "" {
		return Offset{}, fmt.Errorf("empty reminder")
	}
	if s == strings.ToLower(AtTimeOfEvent) || s == "0" {
		return offsetMinutes(0), nil
	}

	var amount, unit string
	if m := tokenRe.FindStringSubmatch(s); m != nil {
		amount, unit = m[1], m[2]
	} else if m := phraseRe.FindStringSubmatch(s); m != nil {
		amount, unit = m[1], m[2][:1]
	} else {
		return Offset{}, fmt.Errorf("unrecognized reminder %q", spec)
	}

	n, err := strconv.Atoi(amount)
	if err != nil || n > maxOffsetMinutes {
		return Offset{}, fmt.Errorf("reminder %q is out of range", spec)
	}
	minutes := n
	switch unit {
	case "h":
		minutes = n * 60
	case "d":
		minutes = n * 24 * 60
	}
	if minutes > maxOffsetMinutes {
		return Offset{}, fmt.Errorf("reminder %q is out of range", spec)
	}
	return offsetMinutes(minutes), nil
}

func offsetMinutes(n int) Offset {
	return Offset{Before: time.Duration(n) * time.Minute, Key: strconv.Itoa(n) + "m"}
}

// ParseClock parses a habit reminder time "HH:mm" and returns its key
// ("0730").
func ParseClock(spec string) (hour, minute int, key string, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(spec))
	if err != nil {
		return 0, 0, "", fmt.Errorf("invalid reminder time %q: expected HH:mm", spec)
	}
	return t.Hour(), t.Minute(), t.Format("1504"), nil
}
