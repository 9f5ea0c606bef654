package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options controls where and how verbosely the service logs.
type Options struct {
	Service string
	Level   string
	// Dir, when set, adds a <Service>.log file next to the console output.
	Dir string
}

// New builds the service logger. The returned closer releases the log file, if any.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	var closer io.Closer = nopCloser{}

	if opts.Dir != "" {
		absLogDir, err := filepath.Abs(opts.Dir)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to resolve log directory: %w", err)
		}
		if err := os.MkdirAll(absLogDir, 0755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		logFile := filepath.Join(absLogDir, opts.Service+".log")
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(out, file)
		closer = file
	}

	log := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", opts.Service).
		Logger()

	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
