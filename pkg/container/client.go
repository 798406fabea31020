package container

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	dockerClient "github.com/docker/docker/client"

	"github.com/nicholas-fedor/tagwatch/internal/meta"
)

// Client is the subset of Docker Engine operations the agent performs.
type Client interface {
	// PullImage pulls imageRef using base64 encoded registry credentials.
	PullImage(ctx context.Context, imageRef, registryAuth string) error
	// TagImage adds target as a local name for source.
	TagImage(ctx context.Context, source, target string) error
	// ServiceImage returns the configured image of the running service container.
	ServiceImage(ctx context.Context, project, service string) (string, error)
	// GetVersion returns the negotiated Docker API version.
	GetVersion() string
}

// client is the concrete implementation of the Client interface.
type client struct {
	api dockerClient.APIClient
}

// NewClient initializes a new Client instance for Docker API interactions.
//
// It configures the client using environment variables (e.g., DOCKER_HOST, DOCKER_API_VERSION)
// and validates the API version, falling back to autonegotiation if necessary.
//
// Parameters:
//   - ctx: Context for the version probes.
//
// Returns:
//   - Client: Initialized client instance.
//   - error: Non-nil if the client cannot be created.
func NewClient(ctx context.Context) (Client, error) {
	cli, err := dockerClient.NewClientWithOpts(
		dockerClient.FromEnv,
		dockerClient.WithAPIVersionNegotiation(),
		dockerClient.WithUserAgent(meta.UserAgent),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errCreateClientFailed, err)
	}

	// Apply forced API version if set and valid.
	if version := strings.Trim(os.Getenv("DOCKER_API_VERSION"), "\""); version != "" {
		pingCli, err := dockerClient.NewClientWithOpts(
			dockerClient.FromEnv,
			dockerClient.WithVersion(version),
			dockerClient.WithUserAgent(meta.UserAgent),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errCreateClientFailed, err)
		}

		if _, err := pingCli.Ping(ctx); err != nil &&
			strings.Contains(err.Error(), "page not found") {
			logrus.WithFields(logrus.Fields{
				"version":  version,
				"error":    err,
				"endpoint": "/_ping",
			}).Warn("Invalid API version; falling back to autonegotiation")
			cli.NegotiateAPIVersion(ctx)
		} else {
			cli = pingCli
		}
	} else {
		cli.NegotiateAPIVersion(ctx)
	}

	if serverVersion, err := cli.ServerVersion(ctx); err != nil {
		logrus.WithFields(logrus.Fields{
			"error":    err,
			"endpoint": "/version",
		}).Error("Failed to retrieve server version")
	} else {
		logrus.WithFields(logrus.Fields{
			"client_version": cli.ClientVersion(),
			"server_version": serverVersion.APIVersion,
		}).Debug("Initialized Docker client")
	}

	return NewClientWithAPI(cli), nil
}

// NewClientWithAPI wraps an existing Docker API client.
func NewClientWithAPI(api dockerClient.APIClient) Client {
	return &client{api: api}
}

// GetVersion returns the client's API version.
func (c *client) GetVersion() string {
	return strings.Trim(c.api.ClientVersion(), "\"")
}
