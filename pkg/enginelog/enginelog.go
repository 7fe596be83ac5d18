// Package enginelog provides structured logging for the clip engine.
//
// The control thread and worker goroutines log through a regular
// mutex-guarded [Logger]. The audio thread never calls into it directly;
// instead it goes through a [Limiter], which uses a single atomic
// counter to decide whether to emit and never blocks or allocates on
// the suppressed path.
package enginelog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level is the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
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
		return "UNKNOWN"
	}
}

// Logger is a leveled, prefixed logger for control-thread and
// worker-thread use.
type Logger struct {
	mu     sync.Mutex
	output io.Writer
	level  Level
	prefix string
}

// New creates a logger writing to output with the given subsystem prefix.
func New(output io.Writer, prefix string) *Logger {
	return &Logger{output: output, prefix: prefix, level: LevelInfo}
}

// Default is the package-level logger, writing to stderr at LevelInfo.
var Default = New(os.Stderr, "clipgrid")

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	var sb strings.Builder
	sb.WriteString(time.Now().Format("2006-01-02 15:04:05.000 "))
	sb.WriteString(fmt.Sprintf("[%s] ", level))
	if l.prefix != "" {
		sb.WriteString(fmt.Sprintf("[%s] ", l.prefix))
	}
	msg := fmt.Sprintf(format, args...)
	sb.WriteString(msg)
	if !strings.HasSuffix(msg, "\n") {
		sb.WriteString("\n")
	}
	_, _ = l.output.Write([]byte(sb.String()))
}

func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

// Limiter emits at most one message per N occurrences, counted with a
// single atomic so it is safe to call from the audio thread: the
// suppressed path is a single atomic add and a comparison, no lock, no
// allocation.
type Limiter struct {
	every uint64
	count atomic.Uint64
	log   *Logger
	what  string
}

// NewLimiter returns a rate limiter that logs through log, emitting
// every-th occurrence (every == 1 logs every time, 0 is treated as 1).
func NewLimiter(log *Logger, what string, every uint64) *Limiter {
	if every == 0 {
		every = 1
	}
	return &Limiter{every: every, log: log, what: what}
}

// Hit records one occurrence and logs a summary line when the counter
// crosses a multiple of every. The suppressed path never blocks; the
// logging hit goes through the Logger's mutex.
func (r *Limiter) Hit(detail string) {
	n := r.count.Add(1)
	if n%r.every == 0 {
		r.log.Warn("%s: %s (x%d so far)", r.what, detail, n)
	}
}
