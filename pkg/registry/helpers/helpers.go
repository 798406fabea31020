// Package helpers builds and inspects image references for the watched repository.
package helpers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/distribution/reference"

	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// Domains for Docker Hub, the default registry.
const (
	DefaultRegistryDomain = "docker.io"
	DefaultRegistryHost   = "index.docker.io"
)

// ecrHostFormat is the private ECR registry host for an account and region.
const ecrHostFormat = "%s.dkr.ecr.%s.amazonaws.com"

var (
	// errMissingECRCoordinates indicates a registry id or region is missing.
	errMissingECRCoordinates = errors.New("registry id and region are required")
	// errInvalidReference indicates host, repository and tag do not form a valid reference.
	errInvalidReference = errors.New("invalid image reference")
)

// ECRHost returns the private ECR registry host.
//
// Parameters:
//   - registryID: AWS account id owning the registry.
//   - region: AWS region of the registry.
//
// Returns:
//   - string: Host such as "123456789012.dkr.ecr.eu-west-1.amazonaws.com".
//   - error: Non-nil if either value is empty.
func ECRHost(registryID, region string) (string, error) {
	if registryID == "" || region == "" {
		return "", errMissingECRCoordinates
	}

	return fmt.Sprintf(ecrHostFormat, registryID, region), nil
}

// ImageReference joins host, repository and tag into a normalized tagged reference.
//
// Parameters:
//   - host: Registry host, may be empty for Docker Hub.
//   - repository: Repository path.
//   - tag: Image tag.
//
// Returns:
//   - string: Reference such as "host/repository:tag".
//   - error: Non-nil if the parts do not form a valid reference.
func ImageReference(host, repository string, tag types.ImageTag) (string, error) {
	name := repository
	if host != "" {
		name = host + "/" + repository
	}

	named, err := reference.ParseNormalizedNamed(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", errInvalidReference, name, err)
	}

	tagged, err := reference.WithTag(named, string(tag))
	if err != nil {
		return "", fmt.Errorf("%w: %s:%s: %w", errInvalidReference, name, tag, err)
	}

	return reference.FamiliarString(tagged), nil
}

// TagFromReference extracts the tag of an image reference.
//
// Returns false for image ids and untagged references.
func TagFromReference(imageRef string) (types.ImageTag, bool) {
	if strings.HasPrefix(imageRef, "sha256:") {
		return "", false
	}

	named, err := reference.ParseNormalizedNamed(imageRef)
	if err != nil {
		return "", false
	}

	tagged, ok := named.(reference.Tagged)
	if !ok {
		return "", false
	}

	return types.ImageTag(tagged.Tag()), true
}

// GetRegistryAddress extracts the registry address from an image reference.
// It returns the domain part of the reference, mapping Docker Hub's default domain
// to its canonical host address if applicable.
func GetRegistryAddress(imageRef string) (string, error) {
	normalizedRef, err := reference.ParseNormalizedNamed(imageRef)
	if err != nil {
		return "", fmt.Errorf("failed to parse image reference: %w", err)
	}

	address := reference.Domain(normalizedRef)
	if address == DefaultRegistryDomain {
		address = DefaultRegistryHost
	}

	return address, nil
}
