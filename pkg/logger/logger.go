package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents the severity level of log messages
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

// levelColors are ANSI codes for pretty output.
var levelColors = [...]string{"37", "36", "32", "33", "31"}

func (l Level) String() string {
	if l < TraceLevel || l > ErrorLevel {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel accepts level names in any case; "warning" is an alias of warn.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TraceLevel, nil
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("invalid log level %q (want trace, debug, info, warn or error)", s)
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	// Output defaults to stderr. Stdout carries the generated document and
	// must never receive log lines.
	Output io.Writer
}

// Logger represents the logger instance
type Logger struct {
	config Config
	mu     sync.Mutex
	logger *log.Logger
}

// Default logger instance
var defaultLogger *Logger

// New builds a logger without installing it as the default.
func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	return &Logger{config: config, logger: log.New(out, "", 0)}
}

// Initialize sets up the default logger
func Initialize(config Config) error {
	defaultLogger = New(config)
	return nil
}

// Enabled reports whether the default logger would emit level.
func Enabled(level Level) bool {
	return defaultLogger != nil && level >= defaultLogger.config.Level
}

// Log writes a log message
func (l *Logger) Log(level Level, message string, fields ...Field) {
	l.log(2, level, message, fields...)
}

func (l *Logger) log(skip int, level Level, message string, fields ...Field) {
	if level < l.config.Level {
		return
	}

	entry := LogEntry{
		Time:      time.Now(),
		Level:     level.String(),
		Message:   message,
		Component: l.config.Component,
	}

	// Add caller info for debug and trace
	if level <= DebugLevel {
		if _, file, line, ok := runtime.Caller(skip); ok {
			entry.File = file
			entry.Line = line
		}
	}

	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, field := range fields {
			entry.Fields[field.Key] = field.Value
		}
	}

	var output string
	if l.config.JSON {
		jsonBytes, _ := json.Marshal(entry)
		output = string(jsonBytes)
	} else {
		output = l.formatPretty(entry)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Print(output)
}

// formatPretty formats the log entry in a human-readable way. Fields are
// printed in key order so identical events produce identical lines.
func (l *Logger) formatPretty(entry LogEntry) string {
	var builder strings.Builder

	builder.WriteString(entry.Time.Format("2006-01-02 15:04:05"))

	level := entry.Level
	if l.config.UseColor {
		for i, name := range levelNames {
			if name == level {
				level = "\033[" + levelColors[i] + "m" + name + "\033[0m"
				break
			}
		}
	}
	builder.WriteString(" [" + level + "]")

	if entry.Component != "" {
		builder.WriteString(" " + entry.Component + ":")
	}
	builder.WriteString(" " + entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		builder.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				builder.WriteString(", ")
			}
			fmt.Fprintf(&builder, "%s=%v", k, entry.Fields[k])
		}
		builder.WriteString("}")
	}

	// File and line for debug/trace
	if entry.File != "" {
		fmt.Fprintf(&builder, " (%s:%d)", entry.File, entry.Line)
	}

	return builder.String()
}

// Field represents a structured field in a log entry
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field rendered as a string.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Strings creates a field holding a list.
func Strings(key string, values []string) Field {
	return Field{Key: key, Value: append([]string(nil), values...)}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// LogEntry represents a log entry
type LogEntry struct {
	Time      time.Time              `json:"time"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// logDefault is shared by the package-level helpers. Warnings and errors
// still reach stderr before Initialize has run.
func logDefault(level Level, message string, fields []Field) {
	if defaultLogger != nil {
		defaultLogger.log(3, level, message, fields...)
		return
	}
	if level >= WarnLevel {
		fmt.Fprintf(os.Stderr, "[%s] licensepage: %s\n", level, message)
	}
}

func Trace(message string, fields ...Field) { logDefault(TraceLevel, message, fields) }
func Debug(message string, fields ...Field) { logDefault(DebugLevel, message, fields) }
func Info(message string, fields ...Field)  { logDefault(InfoLevel, message, fields) }
func Warn(message string, fields ...Field)  { logDefault(WarnLevel, message, fields) }
func Error(message string, fields ...Field) { logDefault(ErrorLevel, message, fields) }

