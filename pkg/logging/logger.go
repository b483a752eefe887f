// Package logging provides the daemon's line logger. It follows the
// teacher's convention of a nil-safe *Logger (a nil receiver silently
// discards everything, which keeps test code free of logger plumbing) and
// colors severity tags with fatih/color when the destination is a terminal.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Logger is the daemon's logger. A nil *Logger is valid and discards all
// output. It is safe for concurrent use, though the daemon's core is
// single-threaded and never exercises that concurrently.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	color  bool
	errorC func(string, ...interface{}) string
	warnC  func(string, ...interface{}) string
}

// New creates a logger that writes to out at the given severity level. If
// out is an *os.File connected to a terminal, severity tags are colorized.
func New(out io.Writer, level Level) *Logger {
	useColor := false
	if f, ok := out.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Logger{
		out:    out,
		level:  level,
		color:  useColor,
		errorC: color.RedString,
		warnC:  color.YellowString,
	}
}

// line formats a single log line the way the original daemon did: a
// timestamp, an optional severity tag, and the message.
func (l *Logger) line(tag, format string, v ...interface{}) string {
	ts := time.Now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, v...)
	if tag == "" {
		return fmt.Sprintf("%s: %s", ts, msg)
	}
	return fmt.Sprintf("%s: %s: %s", ts, tag, msg)
}

func (l *Logger) write(s string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, s)
}

// Debugf logs a debug-level message. A no-op unless the logger's level is
// LevelDebug.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l == nil || l.level > LevelDebug {
		return
	}
	tag := "DEBUG"
	if l.color {
		tag = l.warnC("DEBUG")
	}
	l.write(l.line(tag, format, v...))
}

// Normalf logs a normal-severity message. A no-op if the logger's level is
// LevelError (the --scarce mode).
func (l *Logger) Normalf(format string, v ...interface{}) {
	if l == nil || l.level > LevelNormal {
		return
	}
	l.write(l.line("", format, v...))
}

// Errorf logs an error-severity message. Always emitted regardless of level.
func (l *Logger) Errorf(format string, v ...interface{}) {
	if l == nil {
		return
	}
	tag := "ERROR"
	if l.color {
		tag = l.errorC("ERROR")
	}
	l.write(l.line(tag, format, v...))
}

// Error logs an error value at error severity.
func (l *Logger) Error(err error) {
	l.Errorf("%v", err)
}
