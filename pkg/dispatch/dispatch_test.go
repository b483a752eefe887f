package dispatch

import (
	"testing"

	"github.com/lsyncgo/lsyncgo/pkg/excludes"
	"github.com/lsyncgo/lsyncgo/pkg/kernelwatch"
	"github.com/lsyncgo/lsyncgo/pkg/syncinvoker"
	"github.com/lsyncgo/lsyncgo/pkg/watchtree"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *kernelwatch.FakeWatcher, *fakeSyncer, watchtree.Index) {
	t.Helper()
	watcher := kernelwatch.NewFakeWatcher()
	registry := watchtree.NewRegistry(4)
	rootIndex, err := registry.Insert(watchtree.IndexNone, "", "", watchtree.Descriptor(1))
	if err != nil {
		t.Fatalf("insert root: %v", err)
	}
	// Keep the fake watcher's descriptor sequence aligned: it already
	// handed out nothing yet, so the next Add call returns descriptor 1.
	watcher.Add("/tmp/src")

	syncer := &fakeSyncer{}
	d := NewDispatcher(registry, excludes.Empty, watcher, syncer, nil, watchtree.NewRootPrefix("/tmp/src"), "TARGET")
	return d, watcher, syncer, rootIndex
}

func TestDispatchCloseWriteTriggersNonRecursiveSync(t *testing.T) {
	d, watcher, syncer, _ := newTestDispatcher(t)

	err := d.dispatch(kernelwatch.Event{
		Descriptor: kernelwatch.Descriptor(1),
		Mask:       kernelwatch.EvCloseWrite,
		Name:       "hello",
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(syncer.calls) != 1 {
		t.Fatalf("expected 1 sync call, got %d", len(syncer.calls))
	}
	call := syncer.calls[0]
	if call.Src != "/tmp/src/" || call.Dst != "TARGET/" || call.Recursive {
		t.Fatalf("unexpected sync call: %+v", call)
	}
	_ = watcher
}

func TestDispatchDirectoryCreateInstallsWatch(t *testing.T) {
	d, watcher, _, rootIndex := newTestDispatcher(t)

	err := d.dispatch(kernelwatch.Event{
		Descriptor: kernelwatch.Descriptor(1),
		Mask:       kernelwatch.EvCreate,
		Name:       "d",
		IsDir:      true,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if _, ok := d.Registry.FindChild(rootIndex, "d"); !ok {
		t.Fatalf("expected child node 'd' to be installed")
	}
	found := false
	for _, p := range watcher.Added {
		if p == "/tmp/src/d" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected watch added on /tmp/src/d, got %v", watcher.Added)
	}
}

func TestDispatchDirectoryDeleteRemovesSubtree(t *testing.T) {
	d, watcher, _, rootIndex := newTestDispatcher(t)
	child, err := d.Registry.Insert(rootIndex, "a", "", watchtree.Descriptor(2))
	if err != nil {
		t.Fatalf("insert a: %v", err)
	}

	err = d.dispatch(kernelwatch.Event{
		Descriptor: kernelwatch.Descriptor(1),
		Mask:       kernelwatch.EvDelete,
		Name:       "a",
		IsDir:      true,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if _, ok := d.Registry.Get(child); ok {
		t.Fatalf("expected child 'a' to be removed")
	}
	found := false
	for _, rd := range watcher.Removed {
		if rd == kernelwatch.Descriptor(2) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unwatch call for descriptor 2, got %v", watcher.Removed)
	}
}

func TestDispatchIgnoredEventDropped(t *testing.T) {
	d, _, syncer, _ := newTestDispatcher(t)
	err := d.dispatch(kernelwatch.Event{Descriptor: kernelwatch.Descriptor(1), Ignored: true, Mask: kernelwatch.EvCloseWrite})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(syncer.calls) != 0 {
		t.Fatalf("expected no sync calls for ignored event")
	}
}

func TestDispatchExcludedNameDropped(t *testing.T) {
	watcher := kernelwatch.NewFakeWatcher()
	registry := watchtree.NewRegistry(4)
	registry.Insert(watchtree.IndexNone, "", "", watchtree.Descriptor(1))
	watcher.Add("/tmp/src")

	filterSrc := "node_modules/\n"
	filter, err := excludesParseForTest(filterSrc)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}

	syncer := &fakeSyncer{}
	d := NewDispatcher(registry, filter, watcher, syncer, nil, watchtree.NewRootPrefix("/tmp/src"), "TARGET")

	err = d.dispatch(kernelwatch.Event{
		Descriptor: kernelwatch.Descriptor(1),
		Mask:       kernelwatch.EvCreate,
		Name:       "node_modules",
		IsDir:      true,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(watcher.Added) != 1 { // only the root add from setup
		t.Fatalf("expected no additional watch added for excluded dir, got %v", watcher.Added)
	}
}

func TestDispatchUnknownDescriptorDropped(t *testing.T) {
	d, _, syncer, _ := newTestDispatcher(t)
	err := d.dispatch(kernelwatch.Event{Descriptor: kernelwatch.Descriptor(999), Mask: kernelwatch.EvCloseWrite})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(syncer.calls) != 0 {
		t.Fatalf("expected no sync calls for unknown descriptor")
	}
}

func TestDispatchParentRetryEscalation(t *testing.T) {
	d, _, syncer, rootIndex := newTestDispatcher(t)
	a, err := d.Registry.Insert(rootIndex, "a", "", watchtree.Descriptor(2))
	if err != nil {
		t.Fatalf("insert a: %v", err)
	}
	_ = a

	syncer.results = []syncinvoker.Result{syncinvoker.ResultTransient, syncinvoker.ResultOK}

	err = d.dispatch(kernelwatch.Event{
		Descriptor: kernelwatch.Descriptor(2),
		Mask:       kernelwatch.EvCloseWrite,
		Name:       "hello",
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(syncer.calls) != 2 {
		t.Fatalf("expected 2 sync calls (initial + parent retry), got %d: %+v", len(syncer.calls), syncer.calls)
	}
	retry := syncer.calls[1]
	if retry.Src != "/tmp/src/" || !retry.Recursive {
		t.Fatalf("expected recursive parent retry on root, got %+v", retry)
	}
}

func TestDispatchParentRetryEscalationOnFatalResult(t *testing.T) {
	d, _, syncer, rootIndex := newTestDispatcher(t)
	a, err := d.Registry.Insert(rootIndex, "a", "", watchtree.Descriptor(2))
	if err != nil {
		t.Fatalf("insert a: %v", err)
	}
	_ = a

	// A ResultFatal (the 255 child-exec-failure sentinel) on the initial
	// non-recursive sync must escalate just like ResultTransient: the original
	// daemon's call site never special-cases 255.
	syncer.results = []syncinvoker.Result{syncinvoker.ResultFatal, syncinvoker.ResultOK}

	err = d.dispatch(kernelwatch.Event{
		Descriptor: kernelwatch.Descriptor(2),
		Mask:       kernelwatch.EvCloseWrite,
		Name:       "hello",
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if len(syncer.calls) != 2 {
		t.Fatalf("expected 2 sync calls (initial + parent retry), got %d: %+v", len(syncer.calls), syncer.calls)
	}
	retry := syncer.calls[1]
	if retry.Src != "/tmp/src/" || !retry.Recursive {
		t.Fatalf("expected recursive parent retry on root, got %+v", retry)
	}
}

// excludesParseForTest builds a Filter from exclude-file-format text
// without touching the filesystem, exercised only by this package's tests.
func excludesParseForTest(text string) (*excludes.Filter, error) {
	return excludes.LoadFromString(text)
}
