// Package daemonize detaches the process from its controlling terminal and
// redirects its standard streams to the configured log file, the Go
// rendition of the original daemon's `daemon(0, 0)` plus
// `freopen(logfile, "a", stdout/stderr)` calls (original_source/lsyncd.c).
// Grounded on golang.org/x/sys/unix, already a teacher dependency.
package daemonize

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Detach creates a new session (detaching from the controlling terminal)
// and redirects stdout/stderr to logFile, which is opened in append mode.
// It must be called before any other goroutine starts writing to
// os.Stdout/os.Stderr.
func Detach(logFile string) error {
	if _, err := unix.Setsid(); err != nil {
		// Already a session leader (e.g. re-invoked under a process
		// supervisor); not fatal.
		if !errors.Is(err, unix.EPERM) {
			return errors.Wrap(err, "unable to create new session")
		}
	}

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "unable to open log file %s", logFile)
	}

	if err := dup2(f, os.Stdout); err != nil {
		return err
	}
	if err := dup2(f, os.Stderr); err != nil {
		return err
	}
	return nil
}

// dup2 redirects dst's underlying file descriptor to src's.
func dup2(src, dst *os.File) error {
	if err := unix.Dup2(int(src.Fd()), int(dst.Fd())); err != nil {
		return errors.Wrapf(err, "unable to redirect fd %d", dst.Fd())
	}
	return nil
}
