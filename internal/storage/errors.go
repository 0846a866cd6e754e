package storage

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// Error kinds reported by the profile and settings stores. Callers classify
// failures with errors.Is.
var (
	ErrNotFound      = errors.New("profile not found")
	ErrCorrupt       = errors.New("profile data is corrupt")
	ErrNotWritable   = errors.New("data directory is not writable")
	ErrDiskFull      = errors.New("disk is full")
	ErrInvalidImport = errors.New("import payload is not a profile document")
	ErrInvalidID     = errors.New("invalid profile id")
)

// CorruptError describes a profile file that exists but cannot be decoded.
type CorruptError struct {
	ProfileID string
	Path      string
	Err       error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("profile %s is corrupt (%s): %v", e.ProfileID, e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCorrupt) hold for every CorruptError.
func (e *CorruptError) Is(target error) bool { return target == ErrCorrupt }

// classifyIO maps low-level filesystem failures onto the store's error kinds.
// Errors that fit no kind are returned wrapped but unclassified.
func classifyIO(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return fmt.Errorf("%s: %w: %w", op, ErrDiskFull, err)
	case errors.Is(err, os.ErrPermission), errors.Is(err, syscall.EROFS):
		return fmt.Errorf("%s: %w: %w", op, ErrNotWritable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
