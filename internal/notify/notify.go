// Package notify delivers reminders on the desktop. Triggers registered by
// the reminder scheduler are kept in a pending queue on disk; a dispatcher
// polls the queue and shows each trigger when its time arrives.
package notify

import "strings"

// Desktop shows a notification through the platform's native mechanism.
type Desktop interface {
	// Send shows a notification with the given title and message.
	Send(title, message string) error

	// SendWithSound shows a notification and plays the default sound.
	SendWithSound(title, message string) error

	// IsSupported reports whether the platform tool is available.
	IsSupported() bool
}

type noopDesktop struct{}

func (noopDesktop) Send(title, message string) error          { return nil }
func (noopDesktop) SendWithSound(title, message string) error { return nil }
func (noopDesktop) IsSupported() bool                         { return false }

// NewDesktop returns the notifier for the current platform, or a no-op
// notifier when the platform tool is missing.
func NewDesktop() Desktop {
	d := newPlatformDesktop()
	if d == nil || !d.IsSupported() {
		return noopDesktop{}
	}
	return d
}

// escapeAppleScript escapes backslashes and quotes for AppleScript strings.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
