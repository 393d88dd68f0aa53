// Package logging configures the global zerolog logger for the binaries.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Rrens/trip-planner/internal/config"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger described by cfg. The returned closer
// releases the log file, if any.
func Setup(cfg config.LoggingConfig, stderr io.Writer) (io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var console io.Writer = stderr
	if cfg.Format == "console" {
		console = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}
	}

	var closer io.Closer = nopCloser{}
	out := console
	if cfg.File != "" {
		rl, err := newRotatingFile(cfg)
		if err != nil {
			return nil, err
		}
		closer = rl
		out = zerolog.MultiLevelWriter(console, rl)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closer, nil
}

func newRotatingFile(cfg config.LoggingConfig) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotation := cfg.RotationTime
	if rotation <= 0 {
		rotation = 24 * time.Hour
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}

	rl, err := rotatelogs.New(
		cfg.File+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(cfg.File),
		rotatelogs.WithRotationTime(rotation),
		rotatelogs.WithMaxAge(maxAge),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return rl, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
