package actions

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/internal/util"
)

// InstanceLock keeps a second tagwatch instance from managing the same service.
type InstanceLock struct {
	lock *flock.Flock
}

// DefaultLockPath returns the lock file used when none is configured.
//
// Parameters:
//   - project: Compose project, may be empty.
//   - service: Compose service.
//
// Returns:
//   - string: Path in the system temporary directory.
func DefaultLockPath(project, service string) string {
	name := util.LockName(project, service)

	return filepath.Join(os.TempDir(), "tagwatch-"+name+".lock")
}

// AcquireInstanceLock takes an exclusive lock on path without waiting.
//
// Parameters:
//   - path: Lock file, created if missing.
//
// Returns:
//   - *InstanceLock: Held lock.
//   - error: ErrAnotherInstance if the lock is held elsewhere, or a file error.
func AcquireInstanceLock(path string) (*InstanceLock, error) {
	fileLock := flock.New(path)

	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errInstanceLock, path, err)
	}

	if !locked {
		return nil, fmt.Errorf("%w: %s is locked", ErrAnotherInstance, path)
	}

	logrus.WithField("path", path).Debug("Acquired instance lock")

	return &InstanceLock{lock: fileLock}, nil
}

// Release unlocks the lock file.
func (l *InstanceLock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("%w: %s: %w", errInstanceLock, l.lock.Path(), err)
	}

	return nil
}
