package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogFilePath is the path to the viewer log file, relative to the working directory (project root when run via go run ./cmd/viewer).
const LogFilePath = "logs/viewer.txt"

// maxLines caps the in-memory history shown by the terminal overlay.
const maxLines = 500

// Logger is a zerolog logger that also keeps the most recent lines in memory so the
// terminal overlay can draw them. Components derive child loggers with With().
type Logger struct {
	zerolog.Logger

	mu    sync.Mutex
	lines []string
}

// New returns a Logger writing to stderr, to LogFilePath (appending) and to the in-memory
// history. level is a zerolog level name; unknown names fall back to info.
// A log file that cannot be opened is skipped.
func New(level string) *Logger {
	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}}
	_ = os.MkdirAll(filepath.Dir(LogFilePath), 0755)
	if f, err := os.OpenFile(LogFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		writers = append(writers, f)
	}
	return NewWriter(level, writers...)
}

// NewWriter returns a Logger writing JSON events to out and keeping the in-memory history.
func NewWriter(level string, out ...io.Writer) *Logger {
	l := &Logger{lines: make([]string, 0)}
	history := zerolog.ConsoleWriter{
		Out:        lineSink{l},
		NoColor:    true,
		TimeFormat: time.TimeOnly,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
	}
	writers := append([]io.Writer{history}, out...)
	l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(level)).
		With().Timestamp().Logger()
	return l
}

// ParseLevel converts a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Log records a terminal line (echoed input or command output). The event has no level,
// so it reaches every sink whatever the configured level.
func (l *Logger) Log(line string) {
	l.Logger.Log().Msg(line)
}

// Lines returns a copy of all stored lines.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

func (l *Logger) appendLine(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
	if over := len(l.lines) - maxLines; over > 0 {
		l.lines = append(l.lines[:0], l.lines[over:]...)
	}
}

// lineSink receives console-formatted events and stores each line.
type lineSink struct {
	l *Logger
}

func (s lineSink) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			s.l.appendLine(line)
		}
	}
	return len(p), nil
}
