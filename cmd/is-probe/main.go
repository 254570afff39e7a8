package main

import (
	"Go2InputSpectra/internal/config"
	"Go2InputSpectra/internal/logging"
	"Go2InputSpectra/internal/model"
	"Go2InputSpectra/internal/probe"
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
)

func main() {
	// --- Command-Line Flag Parsing ---
	mode := flag.String("mode", "sub", "Operating mode: 'pub' to read events from stdin and publish, 'sub' to subscribe and print.")
	url := flag.String("url", nats.DefaultURL, "NATS server URL.")
	subject := flag.String("subject", config.DefaultNATSSubject, "NATS subject carrying input events.")
	level := flag.String("log-level", "info", "Log verbosity: debug or info.")
	flag.Parse()

	if err := logging.Setup(logging.Options{Level: *level}); err != nil {
		fmt.Fprintf(os.Stderr, "is-probe: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Mode Dispatch ---
	var err error
	switch *mode {
	case "pub":
		err = runPublisher(ctx, *url, *subject, os.Stdin)
	case "sub":
		err = runSubscriber(ctx, *url, *subject, os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode: %s\n", *mode)
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		slog.Error("is-probe failed", "mode", *mode, "error", err)
		os.Exit(1)
	}
}

// runPublisher forwards JSON-lines events from r to NATS until EOF or a shutdown signal.
func runPublisher(ctx context.Context, url, subject string, r io.Reader) error {
	slog.Info("Starting is-probe in PUBLISH mode", "url", url, "subject", subject)

	pub, err := probe.NewPublisher(url, subject)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer pub.Close()

	published := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := probe.DecodeEvent(line)
		if err != nil {
			slog.Warn("Skipping malformed event", "error", err)
			continue
		}
		if err := pub.Publish(ev); err != nil {
			slog.Warn("Failed to publish event", "error", err)
			continue
		}
		published++
		if published%1000 == 0 {
			slog.Info("Events published", "count", published)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	slog.Info("Publisher finished", "count", published)
	return nil
}

// runSubscriber prints every event received on the subject until a shutdown signal.
func runSubscriber(ctx context.Context, url, subject string, w io.Writer) error {
	slog.Info("Starting is-probe in SUBSCRIBER mode", "url", url, "subject", subject)

	src := probe.NewNATSSource(url, subject)
	err := src.Stream(ctx, func(ev model.Event) {
		data, err := probe.EncodeEvent(ev)
		if err != nil {
			slog.Warn("Failed to encode event", "error", err)
			return
		}
		fmt.Fprintf(w, "%s\n", data)
	})
	if ctx.Err() != nil {
		slog.Info("Shutdown signal received, cleaning up...")
		return nil
	}
	return err
}
