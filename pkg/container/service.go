package container

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	cerrdefs "github.com/containerd/errdefs"
	dockerContainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/nicholas-fedor/tagwatch/pkg/compose"
)

// ServiceImage finds the running container of a compose service and returns its configured image.
//
// Containers are matched by the compose project and service labels. When the
// project is empty only the service label is used. The image is read from the
// container's configuration so the reference keeps the tag it was created
// with, even if that tag has since moved.
//
// Parameters:
//   - ctx: Context for operation control.
//   - project: Compose project name, may be empty.
//   - service: Compose service name.
//
// Returns:
//   - string: Image reference of the container.
//   - error: ErrServiceNotFound if no container is running, or an API error.
func (c *client) ServiceImage(ctx context.Context, project, service string) (string, error) {
	args := filters.NewArgs(
		filters.Arg("label", compose.ComposeServiceLabel+"="+service),
		filters.Arg("status", "running"),
	)
	if project != "" {
		args.Add("label", compose.ComposeProjectLabel+"="+project)
	}

	clog := logrus.WithFields(logrus.Fields{
		"project": project,
		"service": service,
	})

	containers, err := c.api.ContainerList(ctx, dockerContainer.ListOptions{Filters: args})
	if err != nil {
		return "", fmt.Errorf("%w: %w", errListContainersFailed, err)
	}

	for _, summary := range containers {
		if compose.GetServiceName(summary.Labels) != service {
			continue
		}

		info, err := c.api.ContainerInspect(ctx, summary.ID)
		if err != nil {
			if cerrdefs.IsNotFound(err) {
				clog.WithField("container_id", summary.ID).Debug("Container disappeared during lookup")

				continue
			}

			return "", fmt.Errorf("%w: %s: %w", errInspectContainerFailed, summary.ID, err)
		}

		image := summary.Image
		if info.Config != nil && info.Config.Image != "" {
			image = info.Config.Image
		}

		clog.WithFields(logrus.Fields{
			"container_id":    summary.ID,
			"image":           image,
			"compose_project": compose.GetProjectName(summary.Labels),
			"working_dir":     compose.GetWorkingDir(summary.Labels),
		}).Debug("Found service container")

		return image, nil
	}

	return "", fmt.Errorf("%w: %s", ErrServiceNotFound, service)
}
