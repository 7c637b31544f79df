package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
)

// Severity describes a log level.
type Severity uint32

// Log Levels.
const (
	TraceLevel    Severity = 1
	DebugLevel    Severity = 2
	InfoLevel     Severity = 3
	WarningLevel  Severity = 4
	ErrorLevel    Severity = 5
	CriticalLevel Severity = 6
)

var (
	logLevelInt = uint32(InfoLevel)
	logLevel    = &logLevelInt
)

// GetLogLevel returns the current log level.
func GetLogLevel() Severity {
	return Severity(atomic.LoadUint32(logLevel))
}

// SetLogLevel sets a new log level.
func SetLogLevel(level Severity) {
	atomic.StoreUint32(logLevel, uint32(level))
}

// Name returns the name of the log level.
func (s Severity) Name() string {
	switch s {
	case TraceLevel:
		return "trace"
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarningLevel:
		return "warning"
	case ErrorLevel:
		return "error"
	case CriticalLevel:
		return "critical"
	default:
		return "none"
	}
}

// ParseLevel returns the level severity of a log level name.
func ParseLevel(level string) Severity {
	switch strings.ToLower(level) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warning":
		return WarningLevel
	case "error":
		return ErrorLevel
	case "critical":
		return CriticalLevel
	}
	return 0
}

// Start configures the logging system to write to w with the given level.
// A nil writer logs to stderr. Calling Start again replaces the writer.
func Start(level string, w io.Writer) {
	initialLogLevel := InfoLevel
	if level != "" {
		initialLogLevel = ParseLevel(level)
		if initialLogLevel == 0 {
			fmt.Fprintf(os.Stderr, "log warning: invalid log level %q, falling back to level info\n", level)
			initialLogLevel = InfoLevel
		}
	}

	if w == nil {
		w = os.Stderr
	}
	setupSLog(w)
	SetLogLevel(initialLogLevel)
}
