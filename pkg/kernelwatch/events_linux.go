//go:build linux

package kernelwatch

import "golang.org/x/sys/unix"

// Event kind constants, mapped directly onto inotify's IN_* masks. Grounded
// on the teacher's own inotify constant set
// (pkg/filesystem/watching/internal/third_party/notify/event_inotify.go).
const (
	EvAccess       EventMask = EventMask(unix.IN_ACCESS)
	EvModify       EventMask = EventMask(unix.IN_MODIFY)
	EvAttrib       EventMask = EventMask(unix.IN_ATTRIB)
	EvCloseWrite   EventMask = EventMask(unix.IN_CLOSE_WRITE)
	EvCloseNowrite EventMask = EventMask(unix.IN_CLOSE_NOWRITE)
	EvOpen         EventMask = EventMask(unix.IN_OPEN)
	EvMovedFrom    EventMask = EventMask(unix.IN_MOVED_FROM)
	EvMovedTo      EventMask = EventMask(unix.IN_MOVED_TO)
	EvCreate       EventMask = EventMask(unix.IN_CREATE)
	EvDelete       EventMask = EventMask(unix.IN_DELETE)
	EvDeleteSelf   EventMask = EventMask(unix.IN_DELETE_SELF)
	EvMoveSelf     EventMask = EventMask(unix.IN_MOVE_SELF)

	evIgnored   EventMask = EventMask(unix.IN_IGNORED)
	evIsDir     EventMask = EventMask(unix.IN_ISDIR)
	evDontFollow EventMask = EventMask(unix.IN_DONT_FOLLOW)
	evOnlyDir   EventMask = EventMask(unix.IN_ONLYDIR)
)
