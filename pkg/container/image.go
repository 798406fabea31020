package container

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	dockerImageType "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/pkg/jsonmessage"
)

// PullImage pulls an image and waits for the pull to finish.
//
// The progress stream is drained to completion. An error reported inside the
// stream, such as an unknown manifest, fails the pull even though the request
// itself succeeded.
//
// Parameters:
//   - ctx: Context for operation control.
//   - imageRef: Tagged image reference.
//   - registryAuth: Encoded credentials, empty for anonymous pulls.
//
// Returns:
//   - error: Non-nil if the pull cannot start or does not complete.
func (c *client) PullImage(ctx context.Context, imageRef, registryAuth string) error {
	clog := logrus.WithField("image", imageRef)
	clog.Debug("Initiating image pull")

	response, err := c.api.ImagePull(ctx, imageRef, dockerImageType.PullOptions{
		RegistryAuth: registryAuth,
	})
	if err != nil {
		clog.WithError(err).Debug("Failed to initiate image pull")

		return fmt.Errorf("%w: %s: %w", errPullImageFailed, imageRef, err)
	}
	defer response.Close()

	if err := jsonmessage.DisplayJSONMessagesStream(response, io.Discard, 0, false, nil); err != nil {
		clog.WithError(err).Debug("Failed to read image pull response")

		return fmt.Errorf("%w: %s: %w", errReadPullResponseFailed, imageRef, err)
	}

	clog.Debug("Image pull completed")

	return nil
}

// TagImage adds target as an additional name for source.
//
// Parameters:
//   - ctx: Context for operation control.
//   - source: Existing image reference.
//   - target: New reference to create.
//
// Returns:
//   - error: Non-nil if tagging fails.
func (c *client) TagImage(ctx context.Context, source, target string) error {
	if err := c.api.ImageTag(ctx, source, target); err != nil {
		return fmt.Errorf("%w: %s as %s: %w", errTagImageFailed, source, target, err)
	}

	logrus.WithFields(logrus.Fields{
		"image": source,
		"alias": target,
	}).Debug("Tagged image")

	return nil
}
