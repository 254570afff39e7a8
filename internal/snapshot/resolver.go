package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PathResolver picks the snapshot file a delta is merged into.
type PathResolver interface {
	Resolve(t time.Time) string
	// Dir is the directory that must exist before any file is resolved.
	Dir() string
}

// FixedPath resolves every delta to a single evolving file.
type FixedPath string

func (p FixedPath) Resolve(time.Time) string { return string(p) }

func (p FixedPath) Dir() string { return filepath.Dir(string(p)) }

// DailySegments resolves deltas to one file per local calendar day,
// named YYYY-MM-DD followed by Postfix.
type DailySegments struct {
	Directory string
	Postfix   string
}

func (s DailySegments) Resolve(t time.Time) string {
	return filepath.Join(s.Directory, t.Format("2006-01-02")+s.Postfix)
}

func (s DailySegments) Dir() string { return s.Directory }

// EnsureDir creates the resolver's directory if it is missing.
// It fails if the path exists but is not a directory.
func EnsureDir(r PathResolver) error {
	dir := r.Dir()
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("snapshot directory %q exists but is not a directory", dir)
		}
		return nil
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("failed to stat snapshot directory %q: %w", dir, err)
	}
}
