package fsutil

import (
	"fmt"

	"github.com/gofrs/flock"
)

// WithLock runs fn while holding an exclusive advisory lock on path+".lock".
// It serializes writers across processes (CLI invocations and the reminder
// daemon) that touch the same file.
func WithLock(path string, fn func() error) error {
	lk := flock.New(path + ".lock")
	if err := lk.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() { _ = lk.Unlock() }()
	return fn()
}
