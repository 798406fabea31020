// Package auth resolves pull credentials for the watched registry.
//
// Credentials are tried in order: a registry-issued token source (such as an
// ECR authorization token), the REPO_USER and REPO_PASS environment variables,
// and finally the Docker CLI configuration file. The result is encoded the way
// the Docker Engine API expects it in the X-Registry-Auth header.
package auth
