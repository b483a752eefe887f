package kernelwatch

import "sync"

// FakeWatcher is a deterministic, in-memory Watcher used by tests to drive
// the Event Dispatcher and Bootstrapper without a real kernel. It is safe
// for a test goroutine to call Inject while the dispatcher's goroutine
// calls ReadBatch.
type FakeWatcher struct {
	mu      sync.Mutex
	cond    *sync.Cond
	batches [][]Event
	closed  bool
	next    Descriptor

	Added   []string
	Removed []Descriptor
}

// NewFakeWatcher creates an empty FakeWatcher.
func NewFakeWatcher() *FakeWatcher {
	f := &FakeWatcher{next: 1}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Add implements Watcher.Add, assigning sequential descriptors.
func (f *FakeWatcher) Add(path string) (Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.next
	f.next++
	f.Added = append(f.Added, path)
	return d, nil
}

// Remove implements Watcher.Remove.
func (f *FakeWatcher) Remove(descriptor Descriptor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Removed = append(f.Removed, descriptor)
}

// Inject enqueues a batch of events to be returned by a future ReadBatch
// call, in FIFO order.
func (f *FakeWatcher) Inject(batch []Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	f.cond.Broadcast()
}

// ReadBatch implements Watcher.ReadBatch, blocking until a batch is
// injected or the watcher is closed.
func (f *FakeWatcher) ReadBatch() ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.batches) == 0 && !f.closed {
		f.cond.Wait()
	}
	if len(f.batches) == 0 && f.closed {
		return nil, ErrEndOfStream
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

// Close implements Watcher.Close, unblocking any pending ReadBatch with
// ErrEndOfStream.
func (f *FakeWatcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
	return nil
}
