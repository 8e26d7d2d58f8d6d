package logger

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fatih/color"
)

// Logger defines the interface for application logging.
type Logger interface {
	Info(message string, fields ...interface{})
	InfoWithBlankLine(message string, fields ...interface{})
	Warn(message string, fields ...interface{})
	WarnWithBlankLine(message string, fields ...interface{})
	Error(message string, fields ...interface{})
	ErrorWithBlankLine(message string, fields ...interface{})
	Debug(message string, fields ...interface{})
	Success(message string, fields ...interface{})
	SuccessWithBlankLine(message string, fields ...interface{})
	Fatal(message string, fields ...interface{}) // Terminates with os.Exit(1)
}

var (
	infoColor    = color.New(color.FgGreen).SprintFunc()
	warnColor    = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	debugColor   = color.New(color.FgCyan).SprintFunc()
	successColor = color.New(color.FgGreen, color.Bold).SprintFunc()

	timeColor = color.New(color.FgWhite).SprintFunc()
	fileColor = color.New(color.FgBlue).SprintFunc()
	boldColor = color.New(color.Bold).SprintFunc()
)

// exit is replaceable in tests.
var exit = defaultExit

// ColorLogger implements the Logger interface with colored console output.
type ColorLogger struct{}

// NewColorLogger creates a new instance of ColorLogger.
func NewColorLogger() Logger {
	return &ColorLogger{}
}

// Info logs an informational message.
func (l *ColorLogger) Info(message string, fields ...interface{}) {
	l.printMessage(infoColor("INFO"), message, false, fields...)
}

// InfoWithBlankLine logs an informational message and adds a blank line after it.
func (l *ColorLogger) InfoWithBlankLine(message string, fields ...interface{}) {
	l.printMessage(infoColor("INFO"), message, true, fields...)
}

// Warn logs a warning message.
func (l *ColorLogger) Warn(message string, fields ...interface{}) {
	l.printMessage(warnColor("WARN"), message, false, fields...)
}

// WarnWithBlankLine logs a warning message and adds a blank line after it.
func (l *ColorLogger) WarnWithBlankLine(message string, fields ...interface{}) {
	l.printMessage(warnColor("WARN"), message, true, fields...)
}

// Error logs an error message.
func (l *ColorLogger) Error(message string, fields ...interface{}) {
	l.printMessage(errorColor("ERROR"), message, false, fields...)
}

// ErrorWithBlankLine logs an error message and adds a blank line after it.
func (l *ColorLogger) ErrorWithBlankLine(message string, fields ...interface{}) {
	l.printMessage(errorColor("ERROR"), message, true, fields...)
}

// Debug logs a debug message.
func (l *ColorLogger) Debug(message string, fields ...interface{}) {
	l.printMessage(debugColor("DEBUG"), message, false, fields...)
}

// Success logs a success message.
func (l *ColorLogger) Success(message string, fields ...interface{}) {
	l.printMessage(successColor("SUCCESS"), message, false, fields...)
}

// SuccessWithBlankLine logs a success message and adds a blank line after it.
func (l *ColorLogger) SuccessWithBlankLine(message string, fields ...interface{}) {
	l.printMessage(successColor("SUCCESS"), message, true, fields...)
}

// Fatal logs a fatal error message and terminates the program.
func (l *ColorLogger) Fatal(message string, fields ...interface{}) {
	l.printMessage(errorColor("FATAL"), message, false, fields...)
	exit()
}

// printMessage formats and prints the log line.
func (l *ColorLogger) printMessage(level, message string, addBlankLine bool, fields ...interface{}) {
	line := fmt.Sprintf("%s %s %s %s%s",
		timeColor(time.Now().Format("2006-01-02 15:04:05")),
		fileColor(callerLocation()),
		level,
		message,
		formatFields(fields...))

	fmt.Println(line)
	if addBlankLine {
		fmt.Println()
	}
}

// callerLocation returns the call site (file:line) of the logging statement.
func callerLocation() string {
	_, file, line, ok := runtime.Caller(3)
	if !ok {
		return "unknown:0"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// formatFields renders key-value pairs appended to the message.
// Odd trailing values are dropped, non-string keys skipped.
func formatFields(fields ...interface{}) string {
	result := ""
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		result += fmt.Sprintf(" %s=%v", boldColor(key), fields[i+1])
	}
	return result
}
