//go:build linux

package kernelwatch

import (
	"os"
	"strings"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// readBufferSize is sized for a batch of raw events plus inline names,
// mirroring the original daemon's INOTIFY_BUF_LEN (512 events' worth).
const readBufferSize = 512 * (unix.SizeofInotifyEvent + 16)

// inotifyWatcher is the Linux Watcher implementation.
type inotifyWatcher struct {
	fd int

	mu    sync.Mutex
	paths map[Descriptor]string

	buf [readBufferSize]byte
}

// NewWatcher creates a new inotify-backed Watcher.
func NewWatcher() (Watcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "inotify_init1")
	}
	return &inotifyWatcher{
		fd:    fd,
		paths: make(map[Descriptor]string),
	}, nil
}

// Add implements Watcher.Add. It restricts the watch to directories and
// refuses symlink traversal on the watched path itself, per spec.md §4.4.
func (w *inotifyWatcher) Add(path string) (Descriptor, error) {
	flags := uint32(RequiredMask) | unix.IN_DONT_FOLLOW | unix.IN_ONLYDIR
	wd, err := unix.InotifyAddWatch(w.fd, path, flags)
	if err != nil {
		return 0, errors.Wrapf(err, "inotify_add_watch %s", path)
	}
	descriptor := Descriptor(wd)

	w.mu.Lock()
	w.paths[descriptor] = path
	w.mu.Unlock()

	return descriptor, nil
}

// Remove implements Watcher.Remove. Failures are silently accepted; the
// kernel may already have auto-removed the watch.
func (w *inotifyWatcher) Remove(descriptor Descriptor) {
	_, _ = unix.InotifyRmWatch(w.fd, uint32(descriptor))

	w.mu.Lock()
	delete(w.paths, descriptor)
	w.mu.Unlock()
}

// ReadBatch implements Watcher.ReadBatch.
func (w *inotifyWatcher) ReadBatch() ([]Event, error) {
	var n int
	for {
		var err error
		n, err = unix.Read(w.fd, w.buf[:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "inotify read")
		}
		break
	}

	if n == 0 {
		return nil, ErrEndOfStream
	}
	if n < unix.SizeofInotifyEvent {
		return nil, errors.New("short read from inotify")
	}

	var events []Event
	var offset uint32
	for offset <= uint32(n)-unix.SizeofInotifyEvent {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&w.buf[offset]))
		mask := EventMask(raw.Mask)
		nameLen := uint32(raw.Len)

		var name string
		if nameLen > 0 {
			nameBytes := w.buf[offset+unix.SizeofInotifyEvent : offset+unix.SizeofInotifyEvent+nameLen]
			name = strings.TrimRight(string(nameBytes), "\x00")
		}

		events = append(events, Event{
			Descriptor: Descriptor(raw.Wd),
			Mask:       mask &^ (evIgnored | evIsDir),
			Name:       name,
			IsDir:      eventMaskHas(mask, evIsDir),
			Ignored:    eventMaskHas(mask, evIgnored),
		})

		offset += unix.SizeofInotifyEvent + nameLen
	}

	return events, nil
}

// Close implements Watcher.Close.
func (w *inotifyWatcher) Close() error {
	return os.NewFile(uintptr(w.fd), "inotify").Close()
}
