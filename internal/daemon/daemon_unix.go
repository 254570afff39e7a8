//go:build unix

package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// StartOptions describe how to launch the background process.
type StartOptions struct {
	// Executable defaults to the running binary.
	Executable string
	// Args are passed to the child, typically the foreground "run" command and its flags.
	Args    []string
	LogFile string
	PidFile string
}

// Start launches the child in a new session with stdout and stderr appended to the log file,
// records its pid and returns without waiting for it.
func Start(opts StartOptions) (int, error) {
	exe := opts.Executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return 0, fmt.Errorf("failed to locate executable: %w", err)
		}
		exe = self
	}

	logFile, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file '%s': %w", opts.LogFile, err)
	}
	defer logFile.Close()

	cmd := exec.Command(exe, opts.Args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start background process: %w", err)
	}
	pid := cmd.Process.Pid

	if err := WritePid(opts.PidFile, pid); err != nil {
		_ = cmd.Process.Kill()
		return 0, err
	}
	if err := cmd.Process.Release(); err != nil {
		slog.Warn("Failed to release child process", "pid", pid, "error", err)
	}
	slog.Info("Started background process", "pid", pid, "log_file", opts.LogFile, "pid_file", opts.PidFile)
	return pid, nil
}

// Stop sends SIGTERM to the process recorded in the pid file.
func Stop(pidFile string) (int, error) {
	pid, err := ReadPid(pidFile)
	if err != nil {
		return 0, err
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return pid, fmt.Errorf("failed to signal process %d: %w", pid, err)
	}
	return pid, nil
}

// Status reports the recorded pid and whether that process is alive.
func Status(pidFile string) (int, bool, error) {
	pid, err := ReadPid(pidFile)
	if err != nil {
		return 0, false, err
	}
	return pid, alive(pid), nil
}

func alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
