package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	log     = newLogger(os.Stdout, zerolog.InfoLevel)
	logFile *os.File
	logPath string
)

func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    out != os.Stdout,
	}).Level(level).With().Timestamp().Logger()
}

// Init initializes the process logger. An empty path logs to stdout only.
func Init(level, path string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		// Rotate if file is too large (> 10MB)
		if info, err := os.Stat(path); err == nil && info.Size() > 10*1024*1024 {
			_ = os.Rename(path, fmt.Sprintf("%s.%d", path, time.Now().Unix()))
		}

		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		mu.Lock()
		logFile = f
		logPath = path
		mu.Unlock()
		out = zerolog.MultiLevelWriter(os.Stdout, f)
	}

	mu.Lock()
	log = newLogger(out, lvl)
	mu.Unlock()

	LogInfo("Logger initialized, level=%s file=%s", lvl, path)
	return nil
}

// SetOutput redirects the logger, used by the playground and tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(w, log.GetLevel())
}

// Close closes the log file, if any
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

// LogDebug logs a debug message
func LogDebug(format string, args ...any) {
	get().Debug().Msgf(format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...any) {
	get().Info().Msgf(format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...any) {
	get().Warn().Msgf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...any) {
	get().Error().Msgf(format, args...)
}

// LogPanic logs a panic with stack trace
func LogPanic(r any) {
	get().Error().Str("stack", string(debug.Stack())).Msgf("[PANIC] %v", r)
}

// GetLogPath returns the current log file path
func GetLogPath() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}
