package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Logger for debug messages. The TUI owns stdout, so records only go to a
// file and only when verbose mode is enabled.
var (
	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
	logFile *os.File
)

// InitLogger initializes the logging system
func InitLogger(verbose bool, level string) {
	if !verbose {
		return
	}

	// Create log filename with current date
	logFileName := filepath.Join(os.TempDir(), fmt.Sprintf("rolltodo_%s.log", time.Now().Format("2006-01-02")))

	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating log file: %v\n", err)
		return
	}
	logFile = f

	SetOutput(f, level)
	Info("verbose logging enabled", "file", logFileName)
}

// SetOutput points the logger at w.
func SetOutput(w io.Writer, level string) {
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(msg string, args ...any) { logger.Debug(msg, args...) }
func Info(msg string, args ...any)  { logger.Info(msg, args...) }
func Warn(msg string, args ...any)  { logger.Warn(msg, args...) }
func Error(msg string, args ...any) { logger.Error(msg, args...) }

// CloseLogger closes the log file if it's open
func CloseLogger() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
