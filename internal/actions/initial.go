package actions

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// ServiceInspector reports the tag the managed service container currently runs.
type ServiceInspector interface {
	CurrentTag(ctx context.Context, project, service string) (types.ImageTag, bool, error)
}

// TagMatcher reports whether a tag is a release tag.
type TagMatcher interface {
	Match(tag types.ImageTag) bool
}

// InitialVersion derives the starting deployed version from the running service.
//
// The running tag is adopted only when it is a release tag. Any lookup failure,
// a stopped service or a non-release tag yields an unknown version, so the
// first cycle performs an initial sync.
//
// Parameters:
//   - ctx: Context for the lookup.
//   - inspector: Source of the running tag.
//   - matcher: Release tag pattern.
//   - project: Compose project, may be empty.
//   - service: Compose service.
//
// Returns:
//   - *types.DeployedVersion: Known or unknown deployed version.
func InitialVersion(
	ctx context.Context,
	inspector ServiceInspector,
	matcher TagMatcher,
	project, service string,
) *types.DeployedVersion {
	clog := logrus.WithFields(logrus.Fields{
		"project": project,
		"service": service,
	})

	tag, tagged, err := inspector.CurrentTag(ctx, project, service)

	switch {
	case err != nil:
		clog.WithError(err).Info("Could not determine running version, first cycle will sync")
	case !tagged:
		clog.Info("Service runs an untagged image, first cycle will sync")
	case !matcher.Match(tag):
		clog.WithField("tag", tag).Info("Service runs a non-release tag, first cycle will sync")
	default:
		clog.WithField("tag", tag).Info("Detected running release")

		return types.NewDeployedVersion(tag)
	}

	return types.NewDeployedVersion("")
}
