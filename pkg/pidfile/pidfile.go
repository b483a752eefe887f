// Package pidfile writes the daemon's PID file (spec.md §6): a single
// decimal PID followed by a newline. No third-party PID-file library
// appears anywhere in the retrieval pack, so this is plain os.WriteFile —
// see DESIGN.md.
package pidfile

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Write writes the current process's PID to path.
func Write(path string) error {
	content := fmt.Sprintf("%d\n", os.Getpid())
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.Wrapf(err, "unable to write pidfile %s", path)
	}
	return nil
}
