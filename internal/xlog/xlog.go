// Package xlog is a small leveled logger built directly on the standard
// library's log package, in the same spirit as the rest of the
// ambient stack: a structured message plus an optional field map,
// gated by a process-wide level.
package xlog

import (
	"fmt"
	"log"
	"os"
)

// Level orders log severities from most to least verbose.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

var (
	currentLevel = LevelInfo
	logger       = log.New(os.Stdout, "", log.LstdFlags)
)

// SetLevel changes the process-wide minimum level that gets logged.
func SetLevel(l Level) { currentLevel = l }

// SetOutput redirects the logger's destination (tests use this to
// capture output).
func SetOutput(w *log.Logger) { logger = w }

// Fields is an ordered-agnostic bag of structured context attached to a
// log line.
type Fields map[string]any

func Debug(message string, fields Fields) { emit(LevelDebug, message, fields) }
func Info(message string, fields Fields)  { emit(LevelInfo, message, fields) }
func Warn(message string, fields Fields)  { emit(LevelWarn, message, fields) }
func Error(message string, fields Fields) { emit(LevelError, message, fields) }

func emit(level Level, message string, fields Fields) {
	if level < currentLevel {
		return
	}
	line := fmt.Sprintf("[%s] %s", level, message)
	if len(fields) > 0 {
		line += fmt.Sprintf(" %v", map[string]any(fields))
	}
	logger.Println(line)
}
