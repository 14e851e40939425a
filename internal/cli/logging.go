package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation defaults.
const (
	logMaxSizeMB = 10
	logMaxFiles  = 5
)

// RotationConfig configures the rotating log file.
type RotationConfig struct {
	File      string
	MaxSizeMB int
	MaxFiles  int
}

// NewRotatingWriter returns a size-rotated log file writer.
func NewRotatingWriter(cfg RotationConfig) (*lumberjack.Logger, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("rotation file path must not be empty")
	}

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = logMaxSizeMB
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = logMaxFiles
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxFiles,
	}, nil
}

// resolveLevel picks the log level: --log-level wins, then --verbose
// (debug), then warn.
func resolveLevel(level string, verbose bool) (slog.Level, error) {
	if level == "" {
		if verbose {
			return slog.LevelDebug, nil
		}
		return slog.LevelWarn, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

// NewLogger builds the CLI logger. JSON output gets a JSON handler so log
// lines stay machine-readable.
func NewLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// setupLogging creates opts.Logger, writing to stderr or --log-file.
func (o *RootOptions) setupLogging(stderr io.Writer) error {
	level, err := resolveLevel(o.LogLevel, o.Verbose)
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}

	w := stderr
	if o.LogFile != "" {
		rw, err := NewRotatingWriter(RotationConfig{File: o.LogFile})
		if err != nil {
			return WrapExitError(ExitCommandError, "open log file", err)
		}
		o.logCloser = rw
		w = rw
	}

	o.Logger = NewLogger(w, o.Format, level)
	return nil
}

func (o *RootOptions) closeLogging() error {
	if o.logCloser == nil {
		return nil
	}
	err := o.logCloser.Close()
	o.logCloser = nil
	return err
}

// logger returns opts.Logger, or a discarding logger when commands run
// without the root command (as in tests).
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
