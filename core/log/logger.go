package log

import (
	"io"
	"log/slog"
	"os"
)

var (
	logger *slog.Logger
	writer io.Writer = os.Stdout
	level            = new(slog.LevelVar)
)

func init() {
	level.Set(slog.LevelInfo)
	logger = newLogger()
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
}

func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetWriter redirects all subsequent log output to w
func SetWriter(w io.Writer) {
	writer = w
	logger = newLogger()
}
