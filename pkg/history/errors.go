package history

import "errors"

var (
	// errOpenFailed indicates the database could not be opened.
	errOpenFailed = errors.New("failed to open history database")
	// errSchemaFailed indicates the schema could not be created.
	errSchemaFailed = errors.New("failed to create history schema")
	// errInsertFailed indicates a report could not be stored.
	errInsertFailed = errors.New("failed to insert cycle report")
	// errQueryFailed indicates stored reports could not be read.
	errQueryFailed = errors.New("failed to query cycle history")
	// errInvalidLimit indicates a non-positive result limit.
	errInvalidLimit = errors.New("invalid history limit")
)
