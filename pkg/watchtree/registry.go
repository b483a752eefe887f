package watchtree

import "github.com/pkg/errors"

// ErrDuplicateDescriptor is returned by Insert when a live node already
// holds the requested descriptor (invariant I1).
var ErrDuplicateDescriptor = errors.New("duplicate watch descriptor")

// Unwatcher removes a kernel watch by descriptor. Registry calls it exactly
// once per removed live node so that Remove's "one kernel-remove call per
// descendant" guarantee (spec invariant I4) holds regardless of how deep the
// subtree being removed is. Failures are accepted silently by the Registry,
// mirroring the Kernel Watcher's idempotent-removal contract.
type Unwatcher interface {
	Unwatch(descriptor Descriptor)
}

// Registry is an indexable collection of WatchNode with stable indices,
// doubling storage growth, and tombstone-slot reuse. It is not safe for
// concurrent use; the daemon accesses it only from its single cooperative
// loop.
type Registry struct {
	nodes       []WatchNode
	descriptors map[Descriptor]Index
}

// NewRegistry creates an empty registry with room for initialCapacity
// entries before its first growth.
func NewRegistry(initialCapacity int) *Registry {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	return &Registry{
		nodes:       make([]WatchNode, 0, initialCapacity),
		descriptors: make(map[Descriptor]Index, initialCapacity),
	}
}

// Len returns the number of slots in the registry, live and tombstoned.
func (r *Registry) Len() int {
	return len(r.nodes)
}

// Get returns the node at index, or false if index is out of range or
// tombstoned.
func (r *Registry) Get(index Index) (WatchNode, bool) {
	if index < 0 || int(index) >= len(r.nodes) {
		return WatchNode{}, false
	}
	n := r.nodes[index]
	if !n.live() {
		return WatchNode{}, false
	}
	return n, true
}

// Insert adds a new live node with the given parent, name, dest name
// override, and kernel descriptor. It reuses the lowest-indexed tombstoned
// slot if one exists; otherwise it appends, growing storage by doubling.
// Insert fails with ErrDuplicateDescriptor if a live node already holds
// descriptor (invariant I1).
func (r *Registry) Insert(parent Index, name, destName string, descriptor Descriptor) (Index, error) {
	if _, exists := r.descriptors[descriptor]; exists {
		return invalidIndex, ErrDuplicateDescriptor
	}

	node := WatchNode{
		Descriptor: descriptor,
		Name:       name,
		DestName:   destName,
		Parent:     parent,
	}

	for i := range r.nodes {
		if !r.nodes[i].live() {
			r.nodes[i] = node
			idx := Index(i)
			r.descriptors[descriptor] = idx
			return idx, nil
		}
	}

	idx := Index(len(r.nodes))
	if len(r.nodes) == cap(r.nodes) {
		grown := make([]WatchNode, len(r.nodes), 2*cap(r.nodes))
		copy(grown, r.nodes)
		r.nodes = grown
	}
	r.nodes = append(r.nodes, node)
	r.descriptors[descriptor] = idx
	return idx, nil
}

// LookupByDescriptor returns the index of the live node holding descriptor,
// or (0, false) if none exists.
func (r *Registry) LookupByDescriptor(descriptor Descriptor) (Index, bool) {
	idx, ok := r.descriptors[descriptor]
	if !ok {
		return 0, false
	}
	if idx < 0 || int(idx) >= len(r.nodes) || !r.nodes[idx].live() {
		return 0, false
	}
	return idx, true
}

// FindChild returns the lowest-indexed live child of parent whose Name
// equals name, or (0, false) if none exists. A tie only arises transiently
// during a DELETE/CREATE race on the same basename; returning the lowest
// index is the documented tie-break.
func (r *Registry) FindChild(parent Index, name string) (Index, bool) {
	for i := range r.nodes {
		n := &r.nodes[i]
		if n.live() && n.Parent == parent && n.Name == name {
			return Index(i), true
		}
	}
	return 0, false
}

// Remove removes the node at index and, first, every descendant
// (post-order, bottom-up), issuing exactly one Unwatch call per removed
// live descendant including index itself. It is idempotent: removing an
// already-tombstoned or out-of-range index is a no-op.
func (r *Registry) Remove(index Index, watcher Unwatcher) {
	if index < 0 || int(index) >= len(r.nodes) || !r.nodes[index].live() {
		return
	}

	// Remove children first (post-order). Children are collected up front
	// since indices are stable and Remove only tombstones, never reorders.
	var children []Index
	for i := range r.nodes {
		if r.nodes[i].live() && r.nodes[i].Parent == index {
			children = append(children, Index(i))
		}
	}
	for _, child := range children {
		r.Remove(child, watcher)
	}

	descriptor := r.nodes[index].Descriptor
	if watcher != nil {
		watcher.Unwatch(descriptor)
	}
	delete(r.descriptors, descriptor)
	r.nodes[index] = WatchNode{Descriptor: DescriptorNone, Parent: IndexNone}
}
