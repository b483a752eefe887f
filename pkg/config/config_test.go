package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateRequiresBothArguments(t *testing.T) {
	cfg := &Config{SourceDir: "/tmp"}
	verr := cfg.Validate()
	if verr == nil || verr.Code != ExitMissingArguments {
		t.Fatalf("expected ExitMissingArguments, got %v", verr)
	}
}

func TestValidateRejectsMissingSource(t *testing.T) {
	cfg := &Config{SourceDir: "/nonexistent/does/not/exist", TargetSpec: "host::module/"}
	verr := cfg.Validate()
	if verr == nil || verr.Code != ExitFileNotFound {
		t.Fatalf("expected ExitFileNotFound, got %v", verr)
	}
}

func TestValidateResolvesSourceToAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{SourceDir: dir, TargetSpec: "host::module/"}
	if verr := cfg.Validate(); verr != nil {
		t.Fatalf("Validate: %v", verr)
	}
	if !filepath.IsAbs(cfg.SourceDir) {
		t.Fatalf("expected resolved SourceDir to be absolute, got %q", cfg.SourceDir)
	}
	if cfg.RsyncBinary != DefaultRsyncBinary {
		t.Fatalf("expected default rsync binary, got %q", cfg.RsyncBinary)
	}
	if cfg.LogFile != DefaultLogFile {
		t.Fatalf("expected default log file, got %q", cfg.LogFile)
	}
}

func TestValidateRejectsRelativeRsyncBinary(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{SourceDir: dir, TargetSpec: "host::module/", RsyncBinary: "rsync"}
	verr := cfg.Validate()
	if verr == nil || verr.Code != ExitFileNotFound {
		t.Fatalf("expected ExitFileNotFound for relative rsync binary, got %v", verr)
	}
}

func TestValidateRejectsMissingExcludeFrom(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{SourceDir: dir, TargetSpec: "host::module/", ExcludeFrom: "/nonexistent/excludes"}
	verr := cfg.Validate()
	if verr == nil || verr.Code != ExitFileNotFound {
		t.Fatalf("expected ExitFileNotFound for missing exclude file, got %v", verr)
	}
}

func TestValidateAcceptsExistingExcludeFrom(t *testing.T) {
	dir := t.TempDir()
	excludePath := filepath.Join(dir, "excludes.txt")
	if err := os.WriteFile(excludePath, []byte("node_modules/\n"), 0644); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}
	cfg := &Config{SourceDir: dir, TargetSpec: "host::module/", ExcludeFrom: excludePath}
	if verr := cfg.Validate(); verr != nil {
		t.Fatalf("Validate: %v", verr)
	}
}
