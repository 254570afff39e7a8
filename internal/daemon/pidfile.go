package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
)

var (
	// ErrNoPidFile means the pid file does not exist, so no daemon was started.
	ErrNoPidFile = errors.New("pid file not found")
	// ErrBadPidFile means the pid file exists but does not hold a valid pid.
	ErrBadPidFile = errors.New("pid file is not valid")
)

// WritePid atomically records pid in path.
func WritePid(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create pid file directory: %w", err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(strconv.Itoa(pid)+"\n")); err != nil {
		return fmt.Errorf("failed to write pid file '%s': %w", path, err)
	}
	return nil
}

// ReadPid returns the pid recorded in path.
func ReadPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrNoPidFile, path)
		}
		return 0, fmt.Errorf("failed to read pid file '%s': %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: %s contains %q", ErrBadPidFile, path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// RemovePid deletes path if it still records pid. A file owned by another process is left alone.
func RemovePid(path string, pid int) error {
	recorded, err := ReadPid(path)
	if err != nil {
		if errors.Is(err, ErrNoPidFile) {
			return nil
		}
		return err
	}
	if recorded != pid {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove pid file '%s': %w", path, err)
	}
	return nil
}
