//go:build !linux

package kernelwatch

import "github.com/pkg/errors"

// ErrUnsupportedPlatform indicates that this platform has no native Watcher
// implementation. The hard core specified here targets the Linux inotify
// facility exclusively (spec.md §4.4); other platforms are out of scope.
var ErrUnsupportedPlatform = errors.New("kernelwatch: no native watcher implementation for this platform")

// NewWatcher always fails on non-Linux platforms.
func NewWatcher() (Watcher, error) {
	return nil, ErrUnsupportedPlatform
}
