package container

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/pkg/registry/auth"
	"github.com/nicholas-fedor/tagwatch/pkg/registry/helpers"
	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// RuntimeOptions locates the managed image.
type RuntimeOptions struct {
	Host       string // Registry host.
	Repository string // Repository within the registry.
	LocalImage string // Optional local name tagged onto each pulled image.
}

// Runtime pulls release images of the watched repository.
type Runtime struct {
	client Client
	auth   *auth.Provider
	opts   RuntimeOptions
}

// NewRuntime creates a Runtime.
//
// Parameters:
//   - client: Docker client.
//   - provider: Registry credential provider, nil for anonymous pulls.
//   - opts: Image location.
//
// Returns:
//   - *Runtime: Puller for release tags.
func NewRuntime(client Client, provider *auth.Provider, opts RuntimeOptions) *Runtime {
	return &Runtime{client: client, auth: provider, opts: opts}
}

// Reference returns the full image reference of tag.
func (r *Runtime) Reference(tag types.ImageTag) (string, error) {
	ref, err := helpers.ImageReference(r.opts.Host, r.opts.Repository, tag)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errBuildReference, err)
	}

	return ref, nil
}

// Pull fetches the image of tag and applies the local alias when configured.
//
// Parameters:
//   - ctx: Context bounding credential lookup and pull.
//   - tag: Release tag.
//
// Returns:
//   - error: Non-nil if the reference, credentials, pull or alias fails.
func (r *Runtime) Pull(ctx context.Context, tag types.ImageTag) error {
	ref, err := r.Reference(tag)
	if err != nil {
		return err
	}

	registryAuth, err := r.auth.EncodedAuth(ctx, ref)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", errLoadCredentials, ref, err)
	}

	if err := r.client.PullImage(ctx, ref, registryAuth); err != nil {
		return err
	}

	logrus.WithField("image", ref).Info("Pulled image")

	if r.opts.LocalImage == "" {
		return nil
	}

	alias, err := helpers.ImageReference("", r.opts.LocalImage, tag)
	if err != nil {
		return fmt.Errorf("%w: %w", errBuildReference, err)
	}

	return r.client.TagImage(ctx, ref, alias)
}

// CurrentTag returns the tag the managed service container runs.
//
// Parameters:
//   - ctx: Context for the lookup.
//   - project: Compose project, may be empty.
//   - service: Compose service.
//
// Returns:
//   - types.ImageTag: Running tag.
//   - bool: False if the container runs an untagged or digest-pinned image.
//   - error: Non-nil if the lookup fails, including ErrServiceNotFound.
func (r *Runtime) CurrentTag(ctx context.Context, project, service string) (types.ImageTag, bool, error) {
	image, err := r.client.ServiceImage(ctx, project, service)
	if err != nil {
		return "", false, err
	}

	tag, ok := helpers.TagFromReference(image)

	return tag, ok, nil
}
