package api

import "errors"

var (
	// errMissingToken indicates handlers were registered without an API token.
	errMissingToken = errors.New("api token is empty or has not been set")
	// errShutdownFailed indicates the server did not stop cleanly.
	errShutdownFailed = errors.New("server shutdown failed")
)
