package compose

import "errors"

// Errors for compose restarts.
var (
	// errRestartFailed indicates "docker compose up" exited with an error.
	errRestartFailed = errors.New("failed to restart compose service")
	// errEmptyCommand indicates no compose command was configured.
	errEmptyCommand = errors.New("compose command is empty")
	// errEmptyTag indicates a restart was requested without an image tag.
	errEmptyTag = errors.New("image tag is empty")
)
