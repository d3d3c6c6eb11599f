package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked reports that another pipeline invocation holds the
// namespace lock for this run.
var ErrLocked = errors.New("run namespace is locked by another invocation")

const lockFileName = ".run.lock"

// Lock acquires the namespace-level advisory lock serializing pipeline
// invocations against this run. The returned release function must be
// called when the invocation finishes.
func (r *Run) Lock() (func(), error) {
	if err := os.MkdirAll(r.Dir(), 0o755); err != nil {
		return nil, fmt.Errorf("registry: create run directory: %w", err)
	}

	lock := flock.New(filepath.Join(r.Dir(), lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("registry: acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrLocked, r.projectID, r.runID)
	}

	return func() { _ = lock.Unlock() }, nil
}
