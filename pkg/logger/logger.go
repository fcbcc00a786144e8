
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

type Level string

const (
	LevelInfo    Level = "INFO"
	LevelError   Level = "ERROR"
	LevelDenied  Level = "DENIED"
	LevelAllowed Level = "ALLOWED"
	LevelSuccess Level = "SUCCESS"
)

const timeLayout = "2006-01-02 15:04:05"

// Logger writes one line per call as "[LEVEL] YYYY-MM-DD HH:MM:SS - message".
type Logger struct {
	out *log.Logger
	now func() time.Time
}

func New() *Logger { return NewWithWriter(os.Stdout) }

func NewWithWriter(w io.Writer) *Logger {
	return &Logger{out: log.New(w, "", 0), now: time.Now}
}

// WithClock replaces the timestamp source; used by tests.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

func (l *Logger) Logf(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.out.Printf("[%s] %s - %s", level, l.now().Format(timeLayout), msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.Logf(LevelInfo, format, args...)
}
func (l *Logger) Errorf(format string, args ...any) {
	l.Logf(LevelError, format, args...)
}
func (l *Logger) Deniedf(format string, args ...any) {
	l.Logf(LevelDenied, format, args...)
}
func (l *Logger) Allowedf(format string, args ...any) {
	l.Logf(LevelAllowed, format, args...)
}
func (l *Logger) Successf(format string, args ...any) {
	l.Logf(LevelSuccess, format, args...)
}
