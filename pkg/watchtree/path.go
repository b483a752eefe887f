package watchtree

import (
	"strings"

	"github.com/pkg/errors"
)

// MaxPathLen is the platform path length limit assembled paths must not
// exceed (Linux PATH_MAX).
const MaxPathLen = 4096

// ErrPathTooLong is returned when an assembled path would exceed MaxPathLen.
var ErrPathTooLong = errors.New("path too long")

// RootPrefix is an opaque absolute path prefix stored for the root node
// (whose own Name is empty; see the design note in spec.md §9 on the
// original passing "" for the root's name). A Registry does not store it;
// the caller keeps it and passes it to SourcePath.
type RootPrefix struct {
	prefix string
}

// NewRootPrefix wraps an absolute source path as a RootPrefix for use with
// SourcePath.
func NewRootPrefix(absolute string) RootPrefix {
	return RootPrefix{prefix: strings.TrimSuffix(absolute, "/")}
}

// SourcePath reconstructs the absolute source-side path of the live node at
// index by walking its ancestor chain root-to-leaf and joining Name
// segments with "/". Empty segments (the root's Name) are skipped, per the
// recommendation in spec.md §9; the caller supplies the root's absolute
// prefix via root.
func SourcePath(r *Registry, index Index, root RootPrefix) (string, error) {
	return buildPath(r, index, root.prefix, false)
}

// DestPath reconstructs the destination-side path of the live node at index,
// using each ancestor's DestName override when present instead of Name, and
// prepending destRoot (an opaque destination specifier such as
// "host::module/").
func DestPath(r *Registry, index Index, destRoot string) (string, error) {
	return buildPath(r, index, destRoot, true)
}

// buildPath performs the shared root-to-leaf walk for SourcePath and
// DestPath. useDestName selects DestName-over-Name resolution at each step.
func buildPath(r *Registry, index Index, prefix string, useDestName bool) (string, error) {
	var segments []string
	for cur := index; cur != IndexNone; {
		n, ok := r.Get(cur)
		if !ok {
			break
		}
		name := n.Name
		if useDestName && n.DestName != "" {
			name = n.DestName
		}
		if name != "" {
			segments = append(segments, name)
		}
		cur = n.Parent
	}

	// Reverse into root-to-leaf order.
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	var b strings.Builder
	b.WriteString(prefix)
	for i, seg := range segments {
		if i > 0 || (prefix != "" && !strings.HasSuffix(prefix, "/")) {
			b.WriteByte('/')
		}
		b.WriteString(seg)
	}

	path := b.String()
	if len(path) > MaxPathLen {
		return "", ErrPathTooLong
	}
	return path, nil
}

// WithTrailingSlash appends a trailing "/" to path if it does not already
// have one. The Sync Invoker's directory arguments always carry a trailing
// slash (spec.md §4.1).
func WithTrailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}
