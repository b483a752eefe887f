// Package watchtree implements the watch tree: a flat, indexable arena of
// WatchNode entries with explicit parent-as-index links, plus the pure
// path-reconstruction functions that walk it. It is the Go rendition of the
// original daemon's dir_watches array (see original_source/lsyncd.c), kept
// as an arena with tombstoned slots rather than owning pointers so that
// descendant-enumeration, slot reuse, and descriptor lookup stay simple and
// free of lifetime entanglement.
package watchtree

import "math"

// Descriptor identifies a kernel watch. DescriptorNone is the sentinel
// value for a tombstoned (free) slot.
type Descriptor int32

// DescriptorNone marks a WatchNode slot as tombstoned / free.
const DescriptorNone Descriptor = -1

// Index identifies a WatchNode's stable position in a Registry. Indices
// never change for the lifetime of a node.
type Index int32

// IndexNone is the sentinel parent value for the root node.
const IndexNone Index = -1

// invalidIndex is returned by Insert when it fails.
const invalidIndex Index = math.MinInt32

// WatchNode is one entry in the Watch Registry, corresponding to one
// watched directory (or a tombstoned, reusable slot).
type WatchNode struct {
	// Descriptor is the kernel-assigned watch identifier, or DescriptorNone
	// if this slot is tombstoned.
	Descriptor Descriptor
	// Name is the directory's basename on the source side. Empty for the
	// root node, whose absolute path is instead supplied by the caller as a
	// RootPrefix when building paths.
	Name string
	// DestName is an optional override basename used when rendering this
	// node into a destination path. Empty means "use Name".
	DestName string
	// Parent is the index of the parent node, or IndexNone for the root.
	Parent Index
}

// live reports whether this slot holds a live (non-tombstoned) node.
func (n *WatchNode) live() bool {
	return n.Descriptor != DescriptorNone
}
