package container

import "errors"

// Errors for client operations in client.go.
var (
	// errCreateClientFailed indicates the Docker client could not be created.
	errCreateClientFailed = errors.New("failed to create Docker client")
)

// Errors for image operations in image.go.
var (
	// errPullImageFailed indicates a failure to pull an image from the registry.
	errPullImageFailed = errors.New("failed to pull image")
	// errReadPullResponseFailed indicates the pull progress stream failed or reported an error.
	errReadPullResponseFailed = errors.New("failed to read pull response")
	// errTagImageFailed indicates a failure to apply a local tag to an image.
	errTagImageFailed = errors.New("failed to tag image")
)

// Errors for service lookups in service.go.
var (
	// errListContainersFailed indicates a failure to list containers from the Docker host.
	errListContainersFailed = errors.New("failed to list containers")
	// errInspectContainerFailed indicates a failure to inspect a container's details.
	errInspectContainerFailed = errors.New("failed to inspect container")
	// ErrServiceNotFound indicates no running container belongs to the managed service.
	ErrServiceNotFound = errors.New("no running container for service")
)

// Errors for runtime operations in runtime.go.
var (
	// errBuildReference indicates the image reference for a tag could not be built.
	errBuildReference = errors.New("failed to build image reference")
	// errLoadCredentials indicates registry credentials could not be resolved.
	errLoadCredentials = errors.New("failed to load registry credentials")
)
