package main

import (
	"Go2InputSpectra/internal/config"
	"Go2InputSpectra/internal/daemon"
	"Go2InputSpectra/internal/engine/manager"
	"Go2InputSpectra/internal/factory"
	"Go2InputSpectra/internal/logging"
	_ "Go2InputSpectra/internal/probe"
	"Go2InputSpectra/internal/snapshot"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
)

const defaultPidFile = "/tmp/inputspectra.pid"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type engineFlags struct {
	configPath string
	logFile    string
	logLevel   string
	periodMs   int
	pidFile    string
}

func (f *engineFlags) overrides() config.Overrides {
	return config.Overrides{PeriodMs: f.periodMs, LogLevel: f.logLevel, LogFile: f.logFile}
}

func (f *engineFlags) load() (*config.Config, error) {
	return config.LoadConfig(f.configPath, f.overrides())
}

func newRootCmd() *cobra.Command {
	var flags engineFlags

	cmd := &cobra.Command{
		Use:   "is-engine",
		Short: "is-engine - input activity statistics recorder",
		Long:  "is-engine aggregates mouse, wheel, button and key activity and periodically merges it into a JSON snapshot file",
		Example: `  is-engine run --config configs/config.yaml
  is-engine start --config configs/config.yaml --log-file /tmp/inputspectra.log
  is-engine stop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flags.pidFile, "pid-file", defaultPidFile, "Path to the pid file of the background engine")

	cmd.AddCommand(newRunCmd(&flags))
	cmd.AddCommand(newStartCmd(&flags))
	cmd.AddCommand(newStopCmd(&flags))
	cmd.AddCommand(newStatusCmd(&flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func addPipelineFlags(cmd *cobra.Command, flags *engineFlags) {
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "configs/config.yaml", "Path to the YAML configuration file")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "File receiving the background engine's output (overrides daemon.log_file)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log verbosity: debug or info (overrides log_level)")
	cmd.Flags().IntVar(&flags.periodMs, "period-ms", 0, "Flush interval in milliseconds (overrides period_ms)")
}

func newRunCmd(flags *engineFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEngine(cmd, flags)
		},
	}
	addPipelineFlags(cmd, flags)
	return cmd
}

func runEngine(cmd *cobra.Command, flags *engineFlags) error {
	cfg, err := flags.load()
	if err != nil {
		return err
	}
	if err := logging.Setup(logging.Options{Level: cfg.LogLevel, Output: cmd.ErrOrStderr()}); err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}

	resolver, err := cfg.PrepareStorage()
	if err != nil {
		return err
	}
	source, err := factory.CreateSource(cfg)
	if err != nil {
		return err
	}

	if pid, running, err := daemon.Status(flags.pidFile); err == nil && running && pid != os.Getpid() {
		return fmt.Errorf("engine already running with pid %d", pid)
	}
	self := os.Getpid()
	if err := daemon.WritePid(flags.pidFile, self); err != nil {
		slog.Warn("Failed to record pid", "pid_file", flags.pidFile, "error", err)
	}
	defer func() {
		if err := daemon.RemovePid(flags.pidFile, self); err != nil {
			slog.Warn("Failed to remove pid file", "pid_file", flags.pidFile, "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := manager.NewManager(source, snapshot.NewWriter(resolver), manager.Options{
		Period:   cfg.Period(),
		FailFast: cfg.Stats.OnError == config.OnErrorFatal,
	})

	slog.Info("Starting is-engine",
		"config", cfg.Path,
		"source", cfg.Source.Type,
		"snapshot", resolver.Dir(),
		"period", cfg.Period(),
		"on_error", cfg.Stats.OnError)

	if err := m.Run(ctx); err != nil {
		slog.Error("Engine stopped with error", "error", err)
		return err
	}
	slog.Info("Shutdown complete.")
	return nil
}

func newStartCmd(flags *engineFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the engine in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return startEngine(cmd, flags)
		},
	}
	addPipelineFlags(cmd, flags)
	return cmd
}

func startEngine(cmd *cobra.Command, flags *engineFlags) error {
	cfg, err := flags.load()
	if err != nil {
		return err
	}
	if _, err := cfg.PrepareStorage(); err != nil {
		return err
	}
	if cfg.Source.Type == "stdin" {
		return fmt.Errorf("%w: the stdin source cannot be used in background mode", config.ErrConfiguration)
	}
	if pid, running, err := daemon.Status(flags.pidFile); err == nil && running {
		return fmt.Errorf("engine already running with pid %d", pid)
	}

	configPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}
	args := []string{
		"run",
		"--config", configPath,
		"--log-level", cfg.LogLevel,
		"--period-ms", strconv.Itoa(cfg.PeriodMs),
		"--pid-file", flags.pidFile,
	}

	pid, err := daemon.Start(daemon.StartOptions{
		Args:    args,
		LogFile: cfg.Daemon.LogFile,
		PidFile: flags.pidFile,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "is-engine started (pid %d), logging to %s\n", pid, cfg.Daemon.LogFile)
	return nil
}

func newStopCmd(flags *engineFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pid, err := daemon.Stop(flags.pidFile)
			if err != nil {
				return fmt.Errorf("failed to stop engine: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent SIGTERM to is-engine (pid %d)\n", pid)
			return nil
		},
	}
}

func newStatusCmd(flags *engineFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the background engine is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pid, running, err := daemon.Status(flags.pidFile)
			if errors.Is(err, daemon.ErrNoPidFile) {
				fmt.Fprintln(cmd.OutOrStdout(), "is-engine is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if running {
				fmt.Fprintf(cmd.OutOrStdout(), "is-engine is running (pid %d)\n", pid)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "is-engine is not running (stale pid %d)\n", pid)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "is-engine version %s\n", version)
		},
	}
}
