// Package kernelwatch is the thin adapter over the OS filesystem-notification
// facility that the Event Dispatcher depends on. On Linux it is backed
// directly by inotify via golang.org/x/sys/unix, grounded on the teacher's
// own inotify constant set (pkg/filesystem/watching/internal/third_party/notify)
// and on fsnotify/fsnotify's raw read-loop technique.
package kernelwatch

import "github.com/pkg/errors"

// EventMask is a bitmask of kernel event kinds, directly comparable to the
// inotify IN_* constants on Linux.
type EventMask uint32

// RequiredMask is the fixed mask every watch is installed with (spec.md
// §4.4): attribute-change, close-after-write, create, delete,
// delete-of-watched-dir, move-from, move-to.
const RequiredMask EventMask = EvAttrib | EvCloseWrite | EvCreate | EvDelete |
	EvDeleteSelf | EvMovedFrom | EvMovedTo

// Event is a single kernel-delivered filesystem event.
type Event struct {
	// Descriptor identifies which watched directory this event concerns.
	Descriptor Descriptor
	// Mask is the bitmask of event kinds that occurred.
	Mask EventMask
	// Name is the affected child's basename, empty when the event concerns
	// the watched directory itself.
	Name string
	// IsDir reports whether the affected entry is a directory.
	IsDir bool
	// Ignored reports whether the kernel auto-removed the watch (e.g. the
	// watched directory itself was deleted).
	Ignored bool
}

// Descriptor is the kernel-assigned identifier for one watch.
type Descriptor int32

// ErrEndOfStream indicates a zero-length read from the event stream: fatal
// per spec.md §4.4 / §7.
var ErrEndOfStream = errors.New("kernel event stream ended")

// Watcher is the capability set the Event Dispatcher needs from the kernel.
// Implementations are single-owner and used only from the dispatcher's
// cooperative loop.
type Watcher interface {
	// Add installs a watch on an existing directory path with RequiredMask,
	// returning its kernel-assigned descriptor.
	Add(path string) (Descriptor, error)
	// Remove removes a watch by descriptor. The caller accepts failure here
	// silently; the kernel may have already auto-removed the watch.
	Remove(descriptor Descriptor)
	// ReadBatch blocks until at least one event is available, then returns
	// as many queued events as were read in a single underlying read call.
	// A zero-length read returns ErrEndOfStream; any other read failure
	// (other than being interrupted by a signal, which is retried
	// internally) is returned as a fatal error.
	ReadBatch() ([]Event, error)
	// Close releases the underlying kernel watch handle.
	Close() error
}

func eventMaskHas(mask EventMask, bits EventMask) bool {
	return mask&bits != 0
}
