// Package logging builds the process *slog.Logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Params struct {
	Level  string
	Format string // "text" or "json"
	// File, when set, receives a rotated copy of every log line.
	File      string
	MaxSizeMB int
	Stdout    io.Writer
}

// New returns a logger writing to Params.Stdout (os.Stdout when nil) and,
// when File is set, to a lumberjack-rotated file. The returned closer
// releases the file.
func New(params Params) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(params.Level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = params.Stdout
	if out == nil {
		out = os.Stdout
	}
	var closer io.Closer = nopCloser{}
	if params.File != "" {
		name := params.File
		if !strings.HasSuffix(name, ".log") {
			name += ".log"
		}
		maxSize := params.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 50
		}
		lj := &lumberjack.Logger{
			Filename:  name,
			MaxSize:   maxSize, // megabytes
			LocalTime: false,
			Compress:  true,
		}
		out = io.MultiWriter(out, lj)
		closer = lj
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(params.Format) {
	case "", "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", params.Format)
	}
	return slog.New(handler), closer, nil
}

// ParseLevel maps a level name onto slog. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
