package log

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

const timeFormat = "060102 15:04:05.000"

var (
	logger     *slog.Logger
	loggerLock sync.RWMutex
)

func init() {
	setupSLog(os.Stderr)
}

func (s Severity) toSLogLevel() slog.Level {
	switch s {
	case TraceLevel:
		return slog.LevelDebug - 4
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarningLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	case CriticalLevel:
		return slog.LevelError + 4
	}
	// Failed to convert, return default log level
	return slog.LevelWarn
}

func setupSLog(w io.Writer) {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	// Filtering happens in this package, so the handler accepts everything.
	handler := tint.NewHandler(w, &tint.Options{
		AddSource:  false,
		Level:      TraceLevel.toSLogLevel(),
		TimeFormat: timeFormat,
		NoColor:    noColor,
	})

	loggerLock.Lock()
	defer loggerLock.Unlock()
	logger = slog.New(handler)
}

func currentLogger() *slog.Logger {
	loggerLock.RLock()
	defer loggerLock.RUnlock()
	return logger
}
