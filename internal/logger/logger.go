package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

// Options controls where logs go. An empty Dir keeps logs on stdout only.
type Options struct {
	Debug      bool
	Dir        string
	MaxSizeMB  int
	MaxBackups int
}

// Init configures the package logger and makes it the slog default.
// When a directory is set, output is also written to a rotating file there.
func Init(opts Options) {
	level := slog.LevelInfo
	if opts.Debug || os.Getenv("DEBUG") == "true" {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stdout
	if opts.Dir != "" {
		out = io.MultiWriter(os.Stdout, rotatingFile(opts))
	}

	Logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(Logger)
}

func rotatingFile(opts Options) io.Writer {
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	backups := opts.MaxBackups
	if backups <= 0 {
		backups = 5
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "newsbot.log"),
		MaxSize:    maxSize,
		MaxBackups: backups,
	}
}

// Component returns a child logger tagged with the component name.
func Component(name string) *slog.Logger {
	return Logger.With("component", name)
}

// Discard is a logger that drops everything, handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
