package actions

import "errors"

// ErrUpdate indicates a pull or restart failed after a new release was selected.
var ErrUpdate = errors.New("update failed")

// ErrAnotherInstance indicates another tagwatch instance manages the same service.
var ErrAnotherInstance = errors.New("another tagwatch instance is running")

// Errors for driver setup and sanity checks.
var (
	// errMissingDependency indicates a required driver collaborator is nil.
	errMissingDependency = errors.New("missing driver dependency")
	// errPullFailed indicates the image of the target tag could not be pulled.
	errPullFailed = errors.New("pull failed")
	// errRestartFailed indicates the service could not be restarted under the target tag.
	errRestartFailed = errors.New("restart failed")
	// errComposeFileMissing indicates the configured compose file does not exist.
	errComposeFileMissing = errors.New("compose file not found")
	// errComposeDirMissing indicates the configured compose directory does not exist.
	errComposeDirMissing = errors.New("compose directory not found")
	// errNoService indicates no compose service was configured.
	errNoService = errors.New("no compose service configured")
	// errInstanceLock indicates the instance lock file could not be locked.
	errInstanceLock = errors.New("failed to lock instance file")
)
