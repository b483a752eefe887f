// Package bootstrap implements the Bootstrapper (spec.md §4.7 note, §1
// component 7): on startup, walk the source tree once, install watches, and
// perform an initial recursive synchronization of the whole source into the
// target. Grounded on main()'s startup sequence in
// original_source/lsyncd.c.
package bootstrap

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/lsyncgo/lsyncgo/pkg/config"
	"github.com/lsyncgo/lsyncgo/pkg/dispatch"
	"github.com/lsyncgo/lsyncgo/pkg/excludes"
	"github.com/lsyncgo/lsyncgo/pkg/kernelwatch"
	"github.com/lsyncgo/lsyncgo/pkg/logging"
	"github.com/lsyncgo/lsyncgo/pkg/syncinvoker"
	"github.com/lsyncgo/lsyncgo/pkg/watchtree"
)

// Result is everything the Bootstrapper hands off to the Event Dispatcher
// once startup has completed successfully.
type Result struct {
	Registry   *watchtree.Registry
	RootIndex  watchtree.Index
	RootPrefix watchtree.RootPrefix
}

// Run performs the bootstrap sequence: install the root watch, recursively
// install watches on every non-excluded subdirectory, and issue one
// recursive initial sync of the whole source into cfg.TargetSpec.
// Bootstrapper errors that prevent installing the root watch or performing
// the initial sync are fatal (spec.md §7's propagation policy), returned
// here rather than exiting directly so the caller controls the process
// exit code.
func Run(cfg *config.Config, filter *excludes.Filter, watcher kernelwatch.Watcher, invoker dispatch.Syncer, logger *logging.Logger, terminating func() bool) (*Result, error) {
	logger.Normalf("syncing %s -> %s", cfg.SourceDir, cfg.TargetSpec)

	rootPrefix := watchtree.NewRootPrefix(cfg.SourceDir)
	registry := watchtree.NewRegistry(16)

	logger.Normalf("watching %s", cfg.SourceDir)
	start := time.Now()
	rootIndex, err := dispatch.InstallRoot(registry, watcher, filter, logger, rootPrefix, cfg.SourceDir, terminating)
	if err != nil {
		return nil, errors.Wrap(err, "unable to install root watch")
	}

	result, err := invoker.Invoke(watchtree.WithTrailingSlash(cfg.SourceDir), watchtree.WithTrailingSlash(cfg.TargetSpec), true)
	if err != nil {
		return nil, errors.Wrap(err, "initial sync failed")
	}
	if result != syncinvoker.ResultOK {
		return nil, errors.Errorf("initial sync from %s to %s failed", cfg.SourceDir, cfg.TargetSpec)
	}

	logger.Normalf("entering normal operation with %d monitored directories, walk+initial sync started %s", registry.Len(), humanize.Time(start))

	return &Result{
		Registry:   registry,
		RootIndex:  rootIndex,
		RootPrefix: rootPrefix,
	}, nil
}
