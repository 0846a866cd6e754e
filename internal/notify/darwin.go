//go:build darwin

package notify

import (
	"fmt"
	"os/exec"
)

// darwinDesktop shows notifications with osascript.
type darwinDesktop struct{}

func newPlatformDesktop() Desktop {
	return darwinDesktop{}
}

func (d darwinDesktop) Send(title, message string) error {
	return d.send(title, message, false)
}

func (d darwinDesktop) SendWithSound(title, message string) error {
	return d.send(title, message, true)
}

func (darwinDesktop) IsSupported() bool {
	_, err := exec.LookPath("osascript")
	return err == nil
}

func (darwinDesktop) send(title, message string, sound bool) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`,
		escapeAppleScript(message), escapeAppleScript(title))
	if sound {
		script += ` sound name "default"`
	}
	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		return fmt.Errorf("osascript failed: %w", err)
	}
	return nil
}
