// Package common holds helpers shared by the command actions.
package common

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions selects level and destinations for NewLogger.
type LogOptions struct {
	Quiet   bool
	Verbose bool
	File    string // rotated JSON log, empty for none
}

// LogOptionsFrom reads the global logging flags.
func LogOptionsFrom(c *cli.Context, file string) LogOptions {
	return LogOptions{Quiet: c.Bool("quiet"), Verbose: c.Bool("verbose"), File: file}
}

// NewLogger writes text to an interactive stderr and JSON otherwise. With a
// log file both go to stderr and the rotated file as JSON. The returned
// closer releases the file.
func NewLogger(opts LogOptions, stderr *os.File) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	switch {
	case opts.Quiet:
		level = slog.LevelError
	case opts.Verbose:
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.File == "" {
		if isatty.IsTerminal(stderr.Fd()) || isatty.IsCygwinTerminal(stderr.Fd()) {
			return slog.New(slog.NewTextHandler(stderr, handlerOpts)), io.NopCloser(nil), nil
		}
		return slog.New(slog.NewJSONHandler(stderr, handlerOpts)), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}
	handler := slog.NewJSONHandler(io.MultiWriter(stderr, rotator), handlerOpts)
	return slog.New(handler), rotator, nil
}
