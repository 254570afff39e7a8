//go:build unix

package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPidFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "engine.pid")

	require.NoError(t, WritePid(path, 4242))
	pid, err := ReadPid(path)
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)
}

func TestReadPid_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadPid(filepath.Join(dir, "missing.pid"))
	require.ErrorIs(t, err, ErrNoPidFile)

	bad := filepath.Join(dir, "bad.pid")
	require.NoError(t, os.WriteFile(bad, []byte("abc\n"), 0644))
	_, err = ReadPid(bad)
	require.ErrorIs(t, err, ErrBadPidFile)

	negative := filepath.Join(dir, "negative.pid")
	require.NoError(t, os.WriteFile(negative, []byte("-3"), 0644))
	_, err = ReadPid(negative)
	require.ErrorIs(t, err, ErrBadPidFile)
}

func TestRemovePid_OnlyWhenOwned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.pid")
	require.NoError(t, WritePid(path, 100))

	require.NoError(t, RemovePid(path, 200))
	assert.FileExists(t, path)

	require.NoError(t, RemovePid(path, 100))
	assert.NoFileExists(t, path)

	require.NoError(t, RemovePid(path, 100))
}

func TestStopAndStatus_RequirePidFile(t *testing.T) {
	dir := t.TempDir()

	_, err := Stop(filepath.Join(dir, "missing.pid"))
	require.ErrorIs(t, err, ErrNoPidFile)

	bad := filepath.Join(dir, "bad.pid")
	require.NoError(t, os.WriteFile(bad, []byte(""), 0644))
	_, _, err = Status(bad)
	require.ErrorIs(t, err, ErrBadPidFile)
}

func TestStatus_ReportsSelfAlive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "self.pid")
	require.NoError(t, WritePid(path, os.Getpid()))

	pid, running, err := Status(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, running)
}
