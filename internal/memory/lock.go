package memory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = "memories.lock"

// AcquireLock takes an exclusive advisory lock on the data directory so only
// one murmur process writes the collection at a time. Callers must Unlock the
// returned lock when done.
func AcquireLock(dataDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}
	lock := flock.New(filepath.Join(dataDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire data lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("data directory %s is in use by another murmur process", dataDir)
	}
	return lock, nil
}
