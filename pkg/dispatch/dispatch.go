// Package dispatch implements the Event Dispatcher (spec.md §4.6): the
// control core that pulls event batches from the Kernel Watcher, classifies
// each event, mutates the Watch Registry, and decides which directory
// pair(s) to hand to the Sync Invoker, including parent-retry escalation.
// Grounded directly on handle_event/master_loop in original_source/lsyncd.c.
package dispatch

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/lsyncgo/lsyncgo/pkg/excludes"
	"github.com/lsyncgo/lsyncgo/pkg/kernelwatch"
	"github.com/lsyncgo/lsyncgo/pkg/logging"
	"github.com/lsyncgo/lsyncgo/pkg/syncinvoker"
	"github.com/lsyncgo/lsyncgo/pkg/watchtree"
)

// SyncFailureExit is the process exit status used when parent-retry
// escalation itself fails (spec.md §6: "3 · sync failure").
const SyncFailureExit = 3

// Syncer is the Sync Invoker capability the Dispatcher and Bootstrapper
// depend on. *syncinvoker.Invoker implements it; tests substitute a fake to
// control sync outcomes deterministically.
type Syncer interface {
	Invoke(srcDir, dstDir string, recursive bool) (syncinvoker.Result, error)
}

// Dispatcher is the control core. It is not safe for concurrent use beyond
// the single termination flag, which may be written from a signal handler.
type Dispatcher struct {
	Registry   *watchtree.Registry
	Filter     *excludes.Filter
	Watcher    kernelwatch.Watcher
	Invoker    Syncer
	Logger     *logging.Logger
	RootPrefix watchtree.RootPrefix
	DestRoot   string

	// runID correlates every log line emitted by one dispatcher run,
	// mirroring the teacher's practice of tagging sessions with a UUID.
	runID string

	terminating int32
}

// NewDispatcher constructs a Dispatcher and assigns it a run-correlation
// UUID.
func NewDispatcher(registry *watchtree.Registry, filter *excludes.Filter, watcher kernelwatch.Watcher, invoker Syncer, logger *logging.Logger, rootPrefix watchtree.RootPrefix, destRoot string) *Dispatcher {
	return &Dispatcher{
		Registry:   registry,
		Filter:     filter,
		Watcher:    watcher,
		Invoker:    invoker,
		Logger:     logger,
		RootPrefix: rootPrefix,
		DestRoot:   destRoot,
		runID:      uuid.NewString(),
	}
}

// Terminate flips the termination flag. Safe to call from a signal handler;
// it performs no other work (spec.md §5).
func (d *Dispatcher) Terminate() {
	atomic.StoreInt32(&d.terminating, 1)
}

// terminatingNow reports the current value of the termination flag.
func (d *Dispatcher) terminatingNow() bool {
	return atomic.LoadInt32(&d.terminating) != 0
}

// Run is the master loop (spec.md §4.6, steps 1-3): while the termination
// flag is unset, read one batch of events and dispatch each in order.
func (d *Dispatcher) Run(ctx context.Context) error {
	for !d.terminatingNow() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		batch, err := d.Watcher.ReadBatch()
		if err != nil {
			return err
		}

		for _, event := range batch {
			if err := d.dispatch(event); err != nil {
				return err
			}
		}
	}
	return nil
}

// dispatch processes a single event per spec.md §4.6's per-event
// processing steps. Its error result is always nil: when the parent retry
// also fails, it ends the process directly with os.Exit(SyncFailureExit),
// matching the original's exit(LSYNCD_EXECRSYNCFAIL).
func (d *Dispatcher) dispatch(event kernelwatch.Event) error {
	if event.Ignored {
		return nil
	}
	if event.Name != "" && d.Filter.Excludes(event.Name) {
		return nil
	}

	nodeIndex, ok := d.Registry.LookupByDescriptor(watchtree.Descriptor(event.Descriptor))
	if !ok {
		d.Logger.Errorf("[%s] received an event for an unknown watch descriptor %d", d.runID, event.Descriptor)
		return nil
	}

	if event.IsDir && event.Name != "" {
		if eventMaskHas(event.Mask, kernelwatch.EvCreate|kernelwatch.EvMovedTo) {
			d.subtreeInstall(nodeIndex, event.Name)
		}
		if eventMaskHas(event.Mask, kernelwatch.EvDelete|kernelwatch.EvMovedFrom) {
			if child, ok := d.Registry.FindChild(nodeIndex, event.Name); ok {
				d.Registry.Remove(child, watcherUnwatcher{d.Watcher})
			}
		}
	}

	if !eventMaskHas(event.Mask, kernelwatch.EvCreate|kernelwatch.EvCloseWrite|kernelwatch.EvDelete|kernelwatch.EvMovedTo|kernelwatch.EvMovedFrom) {
		return nil
	}

	src, err := watchtree.SourcePath(d.Registry, nodeIndex, d.RootPrefix)
	if err != nil {
		d.Logger.Errorf("[%s] %v", d.runID, err)
		return nil
	}
	dst, err := watchtree.DestPath(d.Registry, nodeIndex, d.DestRoot)
	if err != nil {
		d.Logger.Errorf("[%s] %v", d.runID, err)
		return nil
	}

	result, err := d.Invoker.Invoke(watchtree.WithTrailingSlash(src), watchtree.WithTrailingSlash(dst), false)
	if err != nil {
		d.Logger.Errorf("[%s] %v", d.runID, err)
		return nil
	}
	if result == syncinvoker.ResultOK {
		return nil
	}

	// Parent-retry escalation (spec.md §4.6). Any non-OK result escalates,
	// not just ResultTransient: the original daemon's call site never
	// special-cases the 255 exec-failure sentinel, so a ResultFatal here
	// takes the same escalate-then-exit-on-failure path as a transient one.
	node, ok := d.Registry.Get(nodeIndex)
	if !ok || node.Parent == watchtree.IndexNone {
		return nil
	}

	parentSrc, err := watchtree.SourcePath(d.Registry, node.Parent, d.RootPrefix)
	if err != nil {
		d.Logger.Errorf("[%s] %v", d.runID, err)
		return nil
	}
	parentDst, err := watchtree.DestPath(d.Registry, node.Parent, d.DestRoot)
	if err != nil {
		d.Logger.Errorf("[%s] %v", d.runID, err)
		return nil
	}

	d.Logger.Normalf("[%s] retrying directory resync with %s to %s", d.runID, parentSrc, parentDst)
	retryResult, err := d.Invoker.Invoke(watchtree.WithTrailingSlash(parentSrc), watchtree.WithTrailingSlash(parentDst), true)
	if err != nil {
		d.Logger.Errorf("[%s] %v", d.runID, err)
		return nil
	}
	if retryResult != syncinvoker.ResultOK {
		d.Logger.Errorf("[%s] retry of sync from %s to %s failed", d.runID, parentSrc, parentDst)
		os.Exit(SyncFailureExit)
	}
	return nil
}

// subtreeInstall is §4.7's Subtree Install, invoked both by the dispatcher
// on directory CREATE/MOVED_TO events and by the Bootstrapper at startup.
func (d *Dispatcher) subtreeInstall(parent watchtree.Index, name string) {
	SubtreeInstall(d.Registry, d.Watcher, d.Filter, d.Logger, d.RootPrefix, parent, name, d.terminatingNowFunc())
}

func (d *Dispatcher) terminatingNowFunc() func() bool {
	return d.terminatingNow
}

func eventMaskHas(mask kernelwatch.EventMask, bits kernelwatch.EventMask) bool {
	return mask&bits != 0
}

// watcherUnwatcher adapts a kernelwatch.Watcher to watchtree.Unwatcher so the
// Watch Registry can remove kernel watches without depending on the
// kernelwatch package.
type watcherUnwatcher struct {
	watcher kernelwatch.Watcher
}

func (w watcherUnwatcher) Unwatch(descriptor watchtree.Descriptor) {
	w.watcher.Remove(kernelwatch.Descriptor(descriptor))
}
