//go:build !linux

package kernelwatch

// Event kind constants for platforms without a native Watcher
// implementation. Values are otherwise-unused placeholders; NewWatcher
// always fails on these platforms (see watcher_unsupported.go), so no code
// path ever compares an Event's Mask against them.
const (
	EvAccess EventMask = 1 << iota
	EvModify
	EvAttrib
	EvCloseWrite
	EvCloseNowrite
	EvOpen
	EvMovedFrom
	EvMovedTo
	EvCreate
	EvDelete
	EvDeleteSelf
	EvMoveSelf

	evIgnored
	evIsDir
	evDontFollow
	evOnlyDir
)
