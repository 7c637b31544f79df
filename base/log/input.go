package log

import (
	"context"
	"fmt"
	"sync/atomic"
)

func log(level Severity, msg string) {
	currentLogger().Log(context.Background(), level.toSLogLevel(), msg)
}

func fastcheck(level Severity) bool {
	return uint32(level) >= atomic.LoadUint32(logLevel)
}

// Trace is used to log tiny steps.
func Trace(msg string) {
	if fastcheck(TraceLevel) {
		log(TraceLevel, msg)
	}
}

// Tracef is used to log tiny steps.
func Tracef(format string, things ...interface{}) {
	if fastcheck(TraceLevel) {
		log(TraceLevel, fmt.Sprintf(format, things...))
	}
}

// Debug is used to log minor errors or unexpected events. These occurrences are usually not worth mentioning in itself, but they might hint at a bigger problem.
func Debug(msg string) {
	if fastcheck(DebugLevel) {
		log(DebugLevel, msg)
	}
}

// Debugf is used to log minor errors or unexpected events. These occurrences are usually not worth mentioning in itself, but they might hint at a bigger problem.
func Debugf(format string, things ...interface{}) {
	if fastcheck(DebugLevel) {
		log(DebugLevel, fmt.Sprintf(format, things...))
	}
}

// Info is used to log mildly significant events. Should be used to inform about somewhat bigger or user affecting events that happen.
func Info(msg string) {
	if fastcheck(InfoLevel) {
		log(InfoLevel, msg)
	}
}

// Infof is used to log mildly significant events. Should be used to inform about somewhat bigger or user affecting events that happen.
func Infof(format string, things ...interface{}) {
	if fastcheck(InfoLevel) {
		log(InfoLevel, fmt.Sprintf(format, things...))
	}
}

// Warning is used to log (potentially) bad events, but nothing broke (even a little) and there is no need to panic yet.
func Warning(msg string) {
	if fastcheck(WarningLevel) {
		log(WarningLevel, msg)
	}
}

// Warningf is used to log (potentially) bad events, but nothing broke (even a little) and there is no need to panic yet.
func Warningf(format string, things ...interface{}) {
	if fastcheck(WarningLevel) {
		log(WarningLevel, fmt.Sprintf(format, things...))
	}
}

// Error is used to log errors that break or impair functionality.
func Error(msg string) {
	if fastcheck(ErrorLevel) {
		log(ErrorLevel, msg)
	}
}

// Errorf is used to log errors that break or impair functionality.
func Errorf(format string, things ...interface{}) {
	if fastcheck(ErrorLevel) {
		log(ErrorLevel, fmt.Sprintf(format, things...))
	}
}

// Critical is used to log events that completely break the system. Operation cannot continue.
func Critical(msg string) {
	if fastcheck(CriticalLevel) {
		log(CriticalLevel, msg)
	}
}

// Criticalf is used to log events that completely break the system. Operation cannot continue.
func Criticalf(format string, things ...interface{}) {
	if fastcheck(CriticalLevel) {
		log(CriticalLevel, fmt.Sprintf(format, things...))
	}
}
