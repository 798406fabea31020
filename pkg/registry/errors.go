package registry

import "errors"

// Errors returned by Resolve. Callers classify failures with errors.Is.
var (
	// ErrRegistry indicates the registry was unreachable or returned malformed data.
	ErrRegistry = errors.New("registry query failed")
	// ErrNoMatchingTag indicates no listed tag satisfies the release pattern.
	ErrNoMatchingTag = errors.New("no tag matches the release pattern")
)

// Errors for resolver configuration and record validation.
var (
	// errMalformedRecord indicates a described record is missing data or was never requested.
	errMalformedRecord = errors.New("malformed image record")
	// errMissingRecord indicates a matching tag was not described by the registry.
	errMissingRecord = errors.New("matching tag not described by registry")
	// errInvalidPattern indicates the release pattern could not be compiled.
	errInvalidPattern = errors.New("invalid release tag pattern")
	// errEmptyPattern indicates neither a prefix nor an expression was given.
	errEmptyPattern = errors.New("release tag pattern is empty")
	// errInvalidOptions indicates missing or out-of-range resolver options.
	errInvalidOptions = errors.New("invalid resolver options")
)
