package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Common errors
var (
	// ErrEmptyLogDirectory is returned when validating an empty log directory path.
	ErrEmptyLogDirectory = errors.New("log directory cannot be empty")
	// ErrSymlinkedLogFile is returned when the log path resolves to a symlink.
	ErrSymlinkedLogFile = errors.New("log file must not be a symlink")
)

// SafeOpenFile opens a log file without following a symlink at the final
// path component. A symlinked log file would let a less privileged writer
// redirect audit output, so it is rejected outright.
func SafeOpenFile(path string, flag int, perm os.FileMode) (*os.File, error) {
	if info, err := os.Lstat(path); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return nil, fmt.Errorf("%w: %s", ErrSymlinkedLogFile, path)
		}
	}
	// O_NOFOLLOW guards against a symlink racing in between Lstat and open.
	f, err := os.OpenFile(path, flag|osNoFollow, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ValidateLogDir ensures the log directory exists, creating it if needed,
// and verifies it is writable.
func ValidateLogDir(dir string) error {
	if dir == "" {
		return ErrEmptyLogDirectory
	}

	if err := os.MkdirAll(dir, logDirPerm); err != nil {
		return fmt.Errorf("cannot create log directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	f, err := SafeOpenFile(testFile, os.O_CREATE|os.O_WRONLY|os.O_EXCL, logFilePerm)
	if err != nil {
		return fmt.Errorf("cannot write to log directory %s: %w", dir, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close test file: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return fmt.Errorf("failed to remove test file: %w", err)
	}

	return nil
}

// GenerateRunID generates a new UUID v4 for run identification.
func GenerateRunID() string {
	return uuid.New().String()
}
