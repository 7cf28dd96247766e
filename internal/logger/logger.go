// Package logger provides the process-wide leveled logger.
//
// Output goes to stderr so it never interleaves with data the CLI
// writes to stdout (directory listings, exported file content).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a level name to its Level; unknown names default to
// info.
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	mu       sync.Mutex
	minLevel = LevelInfo
	out      io.Writer = os.Stderr
)

// SetLevel sets the minimum level that gets written.
func SetLevel(name string) {
	mu.Lock()
	minLevel = ParseLevel(name)
	mu.Unlock()
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

func write(level Level, format string, v ...any) {
	mu.Lock()
	defer mu.Unlock()
	if level < minLevel {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(out, "[%s] [%s] %s\n", ts, level, fmt.Sprintf(format, v...))
}

func Debug(format string, v ...any) { write(LevelDebug, format, v...) }
func Info(format string, v ...any)  { write(LevelInfo, format, v...) }
func Warn(format string, v ...any)  { write(LevelWarn, format, v...) }
func Error(format string, v ...any) { write(LevelError, format, v...) }
