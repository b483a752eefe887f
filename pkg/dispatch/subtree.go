package dispatch

import (
	"os"

	"github.com/lsyncgo/lsyncgo/pkg/excludes"
	"github.com/lsyncgo/lsyncgo/pkg/kernelwatch"
	"github.com/lsyncgo/lsyncgo/pkg/logging"
	"github.com/lsyncgo/lsyncgo/pkg/watchtree"
)

// SubtreeInstall implements spec.md §4.7: install a kernel watch on the
// child basename under parent, insert a WatchNode, and recurse into every
// directory entry it contains. Per-subtree failures (watch install,
// directory open) are logged and abandoned without failing the caller.
// terminating is polled inside the enumeration loop so shutdown can
// interrupt a long walk (spec.md §5).
func SubtreeInstall(registry *watchtree.Registry, watcher kernelwatch.Watcher, filter *excludes.Filter, logger *logging.Logger, rootPrefix watchtree.RootPrefix, parent watchtree.Index, name string, terminating func() bool) {
	if filter.Excludes(name) {
		return
	}

	path, err := childSourcePath(registry, rootPrefix, parent, name)
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	installAndWalk(registry, watcher, filter, logger, rootPrefix, parent, name, "", path, terminating)
}

// InstallRoot installs the source root itself: a watch on absolutePath with
// no parent, a WatchNode whose Name is empty (the recommended resolution of
// spec.md §9's empty-segment ambiguity — the absolute prefix is tracked
// separately via rootPrefix rather than stored in the node), and a
// recursive walk of its children. It returns the root's registry index.
func InstallRoot(registry *watchtree.Registry, watcher kernelwatch.Watcher, filter *excludes.Filter, logger *logging.Logger, rootPrefix watchtree.RootPrefix, absolutePath string, terminating func() bool) (watchtree.Index, error) {
	return installAndWalk(registry, watcher, filter, logger, rootPrefix, watchtree.IndexNone, "", "", absolutePath, terminating)
}

// installAndWalk performs the shared watch-install, registry-insert,
// directory-open, and recursive-descend steps used by both SubtreeInstall
// and InstallRoot.
func installAndWalk(registry *watchtree.Registry, watcher kernelwatch.Watcher, filter *excludes.Filter, logger *logging.Logger, rootPrefix watchtree.RootPrefix, parent watchtree.Index, name, destName, path string, terminating func() bool) (watchtree.Index, error) {
	descriptor, err := watcher.Add(path)
	if err != nil {
		logger.Errorf("cannot add watch %s: %v", path, err)
		return 0, err
	}

	nodeIndex, err := registry.Insert(parent, name, destName, watchtree.Descriptor(descriptor))
	if err != nil {
		logger.Errorf("cannot register watch %s: %v", path, err)
		watcher.Remove(descriptor)
		return 0, err
	}

	dir, err := os.Open(path)
	if err != nil {
		logger.Errorf("cannot open dir %s: %v", path, err)
		return nodeIndex, nil
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		logger.Errorf("cannot enumerate dir %s: %v", path, err)
		return nodeIndex, nil
	}

	for _, entry := range entries {
		if terminating != nil && terminating() {
			return nodeIndex, nil
		}
		if !entry.IsDir() {
			continue
		}
		SubtreeInstall(registry, watcher, filter, logger, rootPrefix, nodeIndex, entry.Name(), terminating)
	}

	return nodeIndex, nil
}

// childSourcePath composes the absolute source path of a not-yet-inserted
// child by walking the parent's already-installed path and appending name,
// matching buildpath() in original_source/lsyncd.c.
func childSourcePath(registry *watchtree.Registry, rootPrefix watchtree.RootPrefix, parent watchtree.Index, name string) (string, error) {
	parentPath, err := watchtree.SourcePath(registry, parent, rootPrefix)
	if err != nil {
		return "", err
	}
	if parentPath == "" {
		return name, nil
	}
	return parentPath + "/" + name, nil
}
