package ecr

import "errors"

// Errors returned by the ECR catalog.
var (
	// errListImages indicates a ListImages page request failed.
	errListImages = errors.New("failed to list images")
	// errDescribeImages indicates a DescribeImages batch request failed.
	errDescribeImages = errors.New("failed to describe images")
	// errAuthorizationToken indicates the authorization token could not be obtained.
	errAuthorizationToken = errors.New("failed to get authorization token")
	// errMalformedToken indicates the authorization token is not base64 "user:password".
	errMalformedToken = errors.New("malformed authorization token")
	// errLoadConfig indicates the AWS configuration could not be loaded.
	errLoadConfig = errors.New("failed to load AWS config")
)
