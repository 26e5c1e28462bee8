package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Rotation and file permission constants. The size caps keep total log
// usage bounded on a host with only a few hundred MB of free storage.
const (
	logDirPerm  os.FileMode = 0o750
	logFilePerm os.FileMode = 0o600
)

// ErrEmptyLogPath is returned when a RotatingWriter is created without a path.
var ErrEmptyLogPath = errors.New("log file path cannot be empty")

// RotatingWriter is an io.Writer that writes to a file and rotates it when
// it exceeds a maximum size. Rotated files are kept as <name>.1 .. <name>.N
// with the oldest dropped once the backup count is reached.
type RotatingWriter struct {
	mu          sync.Mutex
	path        string
	maxBytes    int64
	backupCount int
	file        *os.File
	size        int64
}

// NewRotatingWriter opens (or creates) the log file at path and returns a
// writer that rotates it once it grows past maxBytes.
func NewRotatingWriter(path string, maxBytes int64, backupCount int) (*RotatingWriter, error) {
	if path == "" {
		return nil, ErrEmptyLogPath
	}
	if err := os.MkdirAll(filepath.Dir(path), logDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &RotatingWriter{
		path:        path,
		maxBytes:    maxBytes,
		backupCount: backupCount,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends p to the current log file, rotating first if the write
// would push the file past the size cap.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxBytes > 0 && w.size+int64(len(p)) > w.maxBytes && w.size > 0 {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Close closes the underlying file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *RotatingWriter) open() error {
	f, err := SafeOpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", w.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		if closeErr := f.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return fmt.Errorf("failed to stat log file %s: %w", w.path, err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// rotate shifts backups up by one index and reopens a fresh file.
// Must be called with the mutex held.
func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file for rotation: %w", err)
	}
	w.file = nil

	if w.backupCount > 0 {
		oldest := fmt.Sprintf("%s.%d", w.path, w.backupCount)
		// Best effort: the oldest backup may not exist yet.
		_ = os.Remove(oldest)
		for i := w.backupCount - 1; i >= 1; i-- {
			src := fmt.Sprintf("%s.%d", w.path, i)
			dst := fmt.Sprintf("%s.%d", w.path, i+1)
			if _, err := os.Lstat(src); err == nil {
				if err := os.Rename(src, dst); err != nil {
					return fmt.Errorf("failed to shift log backup %s: %w", src, err)
				}
			}
		}
		if err := os.Rename(w.path, w.path+".1"); err != nil {
			return fmt.Errorf("failed to rotate log file %s: %w", w.path, err)
		}
	} else {
		if err := os.Remove(w.path); err != nil {
			return fmt.Errorf("failed to truncate log file %s: %w", w.path, err)
		}
	}

	return w.open()
}
