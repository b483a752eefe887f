// Package excludes implements the Exclude Filter: an immutable set of
// directory-basename patterns loaded once at startup from an exclude file,
// whose format is shared with the external sync tool (spec.md §4.3). Lines
// ending in "/" name a directory to never watch; every other line is a
// file-level pattern meaningful only to the external sync tool and is
// forwarded verbatim, never interpreted here.
package excludes

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// MaxDirectoryPatterns is the cap on directory-basename patterns a Filter
// may hold. Matches the original daemon's MAX_EXCLUDES.
const MaxDirectoryPatterns = 256

// ErrTooManyExcludes is returned when an exclude file names more than
// MaxDirectoryPatterns directory patterns.
var ErrTooManyExcludes = errors.New("too many directory excludes")

// Filter is an immutable, read-only-after-construction set of excluded
// directory basenames.
type Filter struct {
	dirs map[string]struct{}
}

// Empty is a Filter that excludes nothing, used when no --exclude-from was
// configured.
var Empty = &Filter{}

// Excludes reports whether name matches a directory pattern in the filter.
func (f *Filter) Excludes(name string) bool {
	if f == nil || len(f.dirs) == 0 {
		return false
	}
	_, excluded := f.dirs[name]
	return excluded
}

// Load parses an exclude file from path. Blank lines are skipped. A line
// ending in "/" (after trailing-newline stripping) is a directory-basename
// pattern; any other non-blank line is a file pattern and is ignored by the
// filter (the core never interprets it; it is passed to the external sync
// tool unchanged via --exclude-from path itself).
func Load(path string) (*Filter, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open exclude file")
	}
	defer file.Close()
	return parse(file)
}

// LoadFromString parses exclude-file-format text directly, for callers that
// already have the content in memory (tests; future config layers that embed
// patterns rather than reading a file).
func LoadFromString(text string) (*Filter, error) {
	return parse(strings.NewReader(text))
}

func parse(r io.Reader) (*Filter, error) {
	dirs := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if !strings.HasSuffix(line, "/") {
			// File pattern: not interpreted by the core.
			continue
		}
		name := strings.TrimSuffix(line, "/")
		if name == "" {
			continue
		}
		if len(dirs) >= MaxDirectoryPatterns {
			return nil, ErrTooManyExcludes
		}
		dirs[name] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "unable to read exclude file")
	}
	return &Filter{dirs: dirs}, nil
}
