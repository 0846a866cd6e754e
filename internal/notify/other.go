//go:build !darwin && !linux

package notify

// newPlatformDesktop has nothing to offer on this platform; NewDesktop falls
// back to the no-op notifier.
func newPlatformDesktop() Desktop {
	return nil
}
