// Package logger provides logging implementations for songdeck commands.
//
// Every command logs through the Logger interface. ConsoleLogger writes
// human-readable lines to a terminal and FileLogger keeps a per-run log
// beside the run's outputs. Implementations are safe for concurrent use.
package logger

import (
	"fmt"
	"strings"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Levels lists the accepted level names from most to least verbose.
var Levels = []string{"trace", "debug", "info", "warn", "error"}

// Logger is the leveled logging surface used by commands.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level string) bool {
	l := strings.ToLower(strings.TrimSpace(level))
	for _, v := range Levels {
		if v == l {
			return true
		}
	}
	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	if ValidLevel(level) {
		return strings.ToLower(strings.TrimSpace(level))
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// enabled reports whether a message at messageLevel passes configured.
func enabled(configured, messageLevel string) bool {
	return logLevelToInt(strings.ToLower(messageLevel)) >= logLevelToInt(configured)
}

// multiLogger fans every message out to several loggers.
type multiLogger []Logger

// Multi returns a Logger writing to every non-nil logger given.
func Multi(loggers ...Logger) Logger {
	var m multiLogger
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

func (m multiLogger) LogTrace(message string) {
	for _, l := range m {
		l.LogTrace(message)
	}
}

func (m multiLogger) LogDebug(message string) {
	for _, l := range m {
		l.LogDebug(message)
	}
}

func (m multiLogger) LogInfo(message string) {
	for _, l := range m {
		l.LogInfo(message)
	}
}

func (m multiLogger) LogWarn(message string) {
	for _, l := range m {
		l.LogWarn(message)
	}
}

func (m multiLogger) LogError(message string) {
	for _, l := range m {
		l.LogError(message)
	}
}

// NoOpLogger is a Logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(string) {}
func (n *NoOpLogger) LogDebug(string) {}
func (n *NoOpLogger) LogInfo(string)  {}
func (n *NoOpLogger) LogWarn(string)  {}
func (n *NoOpLogger) LogError(string) {}

// LogSectionParsed records a section that parsed cleanly at DEBUG level.
// Format: "parsed [SECTION]: <set> of <total> options set"
func LogSectionParsed(l Logger, section string, set, total int) {
	l.LogDebug(fmt.Sprintf("parsed [%s]: %d of %d options set", section, set, total))
}

// LogStage marks the start of a command stage at INFO level.
func LogStage(l Logger, stage, detail string) {
	if detail == "" {
		l.LogInfo(stage)
		return
	}
	l.LogInfo(fmt.Sprintf("%s: %s", stage, detail))
}

// LogSplitSummary reports the size of one dataset split.
// Format: "train split: 12 files, 1m30s"
func LogSplitSummary(l Logger, split string, files int, seconds float64) {
	l.LogInfo(fmt.Sprintf("%s split: %d files, %s", split, files, formatSeconds(seconds)))
}

// formatSeconds renders a duration in seconds as a short human string.
// Examples: "4.5s", "1m30s", "2h15m"
func formatSeconds(s float64) string {
	switch {
	case s >= 3600:
		h := int(s) / 3600
		m := (int(s) % 3600) / 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	case s >= 60:
		m := int(s) / 60
		rest := int(s) % 60
		if rest == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, rest)
	default:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", s), "0"), ".") + "s"
	}
}
