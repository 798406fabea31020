package flags

import "errors"

var (
	// errInvalidLogFormat indicates an invalid log format was specified.
	errInvalidLogFormat = errors.New("invalid log format specified")
	// errInvalidLogLevel indicates an invalid log level was specified.
	errInvalidLogLevel = errors.New("invalid log level specified")
	// errSetEnvFailed indicates a failure to set an environment variable.
	errSetEnvFailed = errors.New("failed to set environment variable")
	// errReadFileFailed indicates a failure to read a secret file.
	errReadFileFailed = errors.New("failed to read secret file")
	// errSetFlagFailed indicates a failure to read or set a flag's value.
	errSetFlagFailed = errors.New("failed to set flag value")
	// errScheduleConflict indicates both an interval and a schedule were given.
	errScheduleConflict = errors.New("only schedule or interval can be defined, not both")
	// errInvalidInterval indicates a non-positive poll interval.
	errInvalidInterval = errors.New("poll interval must be positive")
	// errMissingOption indicates a required option is empty.
	errMissingOption = errors.New("required option is not set")
	// errConflictingOptions indicates mutually exclusive options were combined.
	errConflictingOptions = errors.New("conflicting options")
	// errInvalidOption indicates an option has an invalid value.
	errInvalidOption = errors.New("invalid option value")
)
