package snapshot

import (
	"Go2InputSpectra/internal/model"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/natefinch/atomic"
)

// ErrPersistence marks a failure to read or write a snapshot file.
var ErrPersistence = errors.New("snapshot persistence failed")

// Writer merges flush deltas into snapshot files on disk.
// It implements the model.Writer interface.
type Writer struct {
	resolver PathResolver

	// replace commits new content to a path. A failed replace leaves the old content intact.
	replace func(path string, r io.Reader) error
}

// NewWriter creates a new snapshot writer using the given path strategy.
func NewWriter(resolver PathResolver) *Writer {
	return &Writer{resolver: resolver, replace: atomic.WriteFile}
}

// Resolver returns the path strategy of the writer.
func (w *Writer) Resolver() PathResolver {
	return w.resolver
}

// Write runs one read-merge-write cycle against the file resolved for the delta's timestamp.
// The merged record is written to a temporary file in the same directory and renamed over
// the snapshot, so the file holds either the previous record or the merged one.
// A nil error means the delta is merged; any error means it is not.
func (w *Writer) Write(delta model.Delta) error {
	path := w.resolver.Resolve(delta.Timestamp)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: failed to read snapshot file '%s': %w", ErrPersistence, path, err)
	}

	base, err := Decode(data)
	if err != nil {
		preserveCorrupt(path, data, delta.Timestamp)
		base = model.Snapshot{}
	}
	merged := Merge(base, delta)

	out, err := Encode(merged)
	if err != nil {
		return fmt.Errorf("%w: failed to encode snapshot: %w", ErrPersistence, err)
	}
	if err := w.replace(path, bytes.NewReader(out)); err != nil {
		return fmt.Errorf("%w: failed to write snapshot file '%s': %w", ErrPersistence, path, err)
	}

	slog.Debug("Snapshot updated", "path", path, "mouse_distance", merged.MouseDistance,
		"wheel_spins", merged.WheelSpins, "button_presses", merged.ButtonPresses, "key_presses", merged.KeyPresses)
	return nil
}

// Read returns the current snapshot stored for time t.
func (w *Writer) Read(t time.Time) (model.Snapshot, error) {
	path := w.resolver.Resolve(t)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Snapshot{}, nil
		}
		return model.Snapshot{}, fmt.Errorf("%w: failed to read snapshot file '%s': %w", ErrPersistence, path, err)
	}
	return Decode(data)
}

// preserveCorrupt keeps unparsable content beside the snapshot before it is replaced by a fresh base.
func preserveCorrupt(path string, data []byte, ts time.Time) {
	backup := path + ".corrupt-" + strconv.FormatInt(ts.UnixNano(), 10)
	if err := atomic.WriteFile(backup, bytes.NewReader(data)); err != nil {
		slog.Warn("Snapshot content is not a JSON object, starting from an empty base; backup failed",
			"path", path, "error", err)
		return
	}
	slog.Warn("Snapshot content is not a JSON object, starting from an empty base",
		"path", path, "backup", backup)
}
