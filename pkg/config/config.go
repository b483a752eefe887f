// Package config holds the daemon's fully-validated configuration, built
// once by the CLI layer (cmd/lsyncgod) and threaded through to the
// Bootstrapper and Event Dispatcher. This reifies what the original daemon
// kept as process-global option variables (spec.md §9's "Global mutable
// state" note) into a single value.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/lsyncgo/lsyncgo/pkg/logging"
)

// ExitCode enumerates the daemon's documented process exit codes
// (spec.md §6).
type ExitCode int

const (
	ExitSuccess          ExitCode = 0
	ExitOutOfMemory      ExitCode = 1
	ExitFileNotFound     ExitCode = 2
	ExitSyncFailure      ExitCode = 3
	ExitMissingArguments ExitCode = 4
	ExitTooManyExcludes  ExitCode = 5
	ExitChildInternal    ExitCode = 255
)

// DefaultRsyncBinary matches the original daemon's default.
const DefaultRsyncBinary = "/usr/bin/rsync"

// DefaultLogFile matches the original daemon's default.
const DefaultLogFile = "/var/log/lsyncgo.log"

// Config is the daemon's complete, validated configuration.
type Config struct {
	SourceDir   string
	TargetSpec  string
	RsyncBinary string
	ExcludeFrom string
	PidFile     string
	LogFile     string
	DryRun      bool
	NoDaemon    bool
	Level       logging.Level
}

// ValidationError pairs a human-readable message with the exit code the CLI
// should use when reporting it (spec.md §6).
type ValidationError struct {
	Code ExitCode
	Err  error
}

func (v *ValidationError) Error() string { return v.Err.Error() }
func (v *ValidationError) Unwrap() error { return v.Err }

func fail(code ExitCode, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Code: code, Err: errors.Errorf(format, args...)}
}

// Validate checks the configuration against spec.md §6's requirements,
// resolving SourceDir to an absolute, symlink-free path in the process
// (the Go rendition of the original's realdir(), supplemented per
// SPEC_FULL.md §4).
func (c *Config) Validate() *ValidationError {
	if c.SourceDir == "" || c.TargetSpec == "" {
		return fail(ExitMissingArguments, "SOURCE_DIR and TARGET_SPEC are both required")
	}

	resolved, err := filepath.Abs(c.SourceDir)
	if err != nil {
		return fail(ExitFileNotFound, "unable to resolve source directory %q: %v", c.SourceDir, err)
	}
	if real, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = real
	} else {
		return fail(ExitFileNotFound, "source directory %q not found: %v", c.SourceDir, err)
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return fail(ExitFileNotFound, "source %q is not a directory", c.SourceDir)
	}
	c.SourceDir = resolved

	if c.RsyncBinary == "" {
		c.RsyncBinary = DefaultRsyncBinary
	} else if !filepath.IsAbs(c.RsyncBinary) {
		return fail(ExitFileNotFound, "--rsync-binary requires an absolute path")
	}

	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	} else if !filepath.IsAbs(c.LogFile) {
		return fail(ExitFileNotFound, "--logfile requires an absolute path")
	}

	if c.ExcludeFrom != "" {
		if !filepath.IsAbs(c.ExcludeFrom) {
			return fail(ExitFileNotFound, "--exclude-from requires an absolute path")
		}
		if _, err := os.Stat(c.ExcludeFrom); err != nil {
			return fail(ExitFileNotFound, "exclude file %q does not exist", c.ExcludeFrom)
		}
	}

	if c.PidFile != "" && !filepath.IsAbs(c.PidFile) {
		return fail(ExitFileNotFound, "--pidfile requires an absolute path")
	}

	return nil
}
