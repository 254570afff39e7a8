package probe

import (
	"Go2InputSpectra/internal/model"
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

const maxLineSize = 64 * 1024

// StreamSource reads newline-delimited JSON events from a reader, typically the stdout
// of an external input-hook helper piped into the process.
// It implements the model.EventSource interface.
type StreamSource struct {
	name string
	r    io.Reader
}

// NewStreamSource creates a source over r. name is used in log messages.
func NewStreamSource(name string, r io.Reader) *StreamSource {
	return &StreamSource{name: name, r: r}
}

// Stream emits one event per decodable line until EOF, a read error, or ctx is done.
// Malformed lines are logged and skipped. EOF ends the stream cleanly.
func (s *StreamSource) Stream(ctx context.Context, emit func(model.Event)) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	// The reader goroutine may stay blocked in Read after ctx is done; it exits when the reader does.
	go func() {
		br := bufio.NewReader(s.r)
		for {
			line, tooLong, err := readLine(br, maxLineSize)
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				readErr <- err
				return
			}
			if tooLong {
				slog.Warn("Skipping oversized event line", "source", s.name, "limit", maxLineSize)
				continue
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	slog.Info("Reading input events", "source", s.name)
	skipped := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("failed to read events from %s: %w", s.name, err)
			}
			slog.Info("Input stream closed", "source", s.name, "skipped", skipped)
			return nil
		case line := <-lines:
			if len(line) == 0 {
				continue
			}
			ev, err := DecodeEvent(line)
			if err != nil {
				skipped++
				slog.Debug("Skipping malformed event", "source", s.name, "error", err)
				continue
			}
			emit(ev)
		}
	}
}

// readLine returns the next line without its terminator. A line longer than limit is
// consumed in full and reported with tooLong set. io.EOF is returned only once no bytes remain.
func readLine(br *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	read := false
	for {
		chunk, rerr := br.ReadSlice('\n')
		read = read || len(chunk) > 0
		if !tooLong {
			line = append(line, chunk...)
			if len(bytes.TrimRight(line, "\r\n")) > limit {
				line, tooLong = nil, true
			}
		}
		switch {
		case errors.Is(rerr, bufio.ErrBufferFull):
			continue
		case errors.Is(rerr, io.EOF) && read:
			return bytes.TrimRight(line, "\r\n"), tooLong, nil
		case rerr != nil:
			return nil, false, rerr
		default:
			return bytes.TrimRight(line, "\r\n"), tooLong, nil
		}
	}
}
