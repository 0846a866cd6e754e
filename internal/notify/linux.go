//go:build linux

package notify

import (
	"fmt"
	"os/exec"
)

// linuxDesktop shows notifications with notify-send.
type linuxDesktop struct{}

func newPlatformDesktop() Desktop {
	return linuxDesktop{}
}

func (d linuxDesktop) Send(title, message string) error {
	return d.send(title, message, false)
}

// SendWithSound raises the urgency hint; whether a sound plays is up to the
// notification daemon.
func (d linuxDesktop) SendWithSound(title, message string) error {
	return d.send(title, message, true)
}

func (linuxDesktop) IsSupported() bool {
	_, err := exec.LookPath("notify-send")
	return err == nil
}

func (linuxDesktop) send(title, message string, sound bool) error {
	args := []string{"--app-name=dailies", title, message}
	if sound {
		args = append([]string{"--urgency=normal"}, args...)
	}
	if err := exec.Command("notify-send", args...).Run(); err != nil {
		return fmt.Errorf("notify-send failed: %w", err)
	}
	return nil
}
