package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	dockerCliConfig "github.com/docker/cli/cli/config"
	dockerConfigConfigfile "github.com/docker/cli/cli/config/configfile"
	dockerConfigCredentials "github.com/docker/cli/cli/config/credentials"
	dockerConfigTypes "github.com/docker/cli/cli/config/types"

	"github.com/nicholas-fedor/tagwatch/pkg/registry/helpers"
	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// Errors for registry authentication operations.
var (
	// errUnsetRegAuthVars indicates registry auth environment variables (REPO_USER, REPO_PASS) are not set.
	errUnsetRegAuthVars = errors.New(
		"registry auth environment variables (REPO_USER, REPO_PASS) not set",
	)
	// errFailedGetRegistryAddress indicates a failure to extract the registry address from an image reference.
	errFailedGetRegistryAddress = errors.New("failed to get registry address")
	// errFailedLoadDockerConfig indicates a failure to load the Docker configuration file.
	errFailedLoadDockerConfig = errors.New("failed to load Docker config")
	// errFailedMarshalAuthConfig indicates a failure to marshal the auth config to JSON.
	errFailedMarshalAuthConfig = errors.New("failed to marshal auth config to JSON")
)

// Provider resolves encoded pull credentials for image references.
type Provider struct {
	source types.CredentialSource
}

// NewProvider creates a Provider. A nil source skips token-based credentials.
func NewProvider(source types.CredentialSource) *Provider {
	return &Provider{source: source}
}

// EncodedAuth returns encoded credentials for imageRef.
//
// The token source is tried first, then the environment, then the Docker
// config file. An empty string with a nil error means anonymous pull.
//
// Parameters:
//   - ctx: Context for the token request.
//   - imageRef: Image reference being pulled.
//
// Returns:
//   - string: Base64 encoded AuthConfig, or empty.
//   - error: Non-nil if the config file cannot be read or encoding fails.
func (p *Provider) EncodedAuth(ctx context.Context, imageRef string) (string, error) {
	fields := logrus.Fields{
		"image_ref": imageRef,
	}

	logrus.WithFields(fields).Debug("Attempting to retrieve auth credentials")

	if p != nil && p.source != nil {
		creds, err := p.source.Credentials(ctx)
		if err == nil {
			logrus.WithFields(fields).
				WithField("server", creds.ServerAddress).
				Debug("Using registry token credentials")

			return EncodeAuth(dockerConfigTypes.AuthConfig{
				Username:      creds.Username,
				Password:      creds.Password,
				ServerAddress: creds.ServerAddress,
			})
		}

		logrus.WithError(err).
			WithFields(fields).
			Warn("Registry token unavailable, falling back to static credentials")
	}

	auth, err := EncodedEnvAuth()
	if err != nil {
		logrus.WithError(err).
			WithFields(fields).
			Debug("Environment auth not available, trying config file")

		auth, err = EncodedConfigAuth(imageRef)
	}

	if err == nil && auth != "" {
		logrus.WithFields(fields).Debug("Successfully retrieved auth credentials")
	}

	return auth, err
}

// EncodedEnvAuth checks for REPO_USER and REPO_PASS environment variables and encodes them into
// a base64 string if present. It returns an error if these variables are not set.
func EncodedEnvAuth() (string, error) {
	username := os.Getenv("REPO_USER")
	password := os.Getenv("REPO_PASS")

	if username == "" || password == "" {
		logrus.Debug("Environment auth variables not set")

		return "", errUnsetRegAuthVars
	}

	logrus.WithField("username", username).Debug("Loaded auth credentials from environment")

	return EncodeAuth(dockerConfigTypes.AuthConfig{
		Username: username,
		Password: password,
	})
}

// EncodedConfigAuth retrieves credentials for the registry of imageRef from the Docker
// config file in DOCKER_CONFIG, or the Docker CLI's default directory when unset.
// It returns an empty string when the file holds no credentials for that registry.
func EncodedConfigAuth(imageRef string) (string, error) {
	fields := logrus.Fields{
		"image_ref": imageRef,
	}

	server, err := helpers.GetRegistryAddress(imageRef)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errFailedGetRegistryAddress, err)
	}

	dir := configDir()

	configFile, err := dockerCliConfig.Load(dir)
	if err != nil {
		logrus.WithError(err).
			WithFields(fields).
			WithField("config_dir", dir).
			Debug("Failed to load Docker config")

		return "", fmt.Errorf("%w: %w", errFailedLoadDockerConfig, err)
	}

	auth, _ := CredentialsStore(*configFile).Get(server)
	if auth == (dockerConfigTypes.AuthConfig{}) {
		logrus.WithFields(fields).WithFields(logrus.Fields{
			"server":      server,
			"config_file": configFile.Filename,
		}).Debug("No credentials found in config")

		return "", nil
	}

	logrus.WithFields(fields).WithFields(logrus.Fields{
		"username": auth.Username,
		"server":   server,
	}).Debug("Loaded auth credentials from config")

	return EncodeAuth(auth)
}

// configDir returns DOCKER_CONFIG, falling back to the Docker CLI's config directory.
func configDir() string {
	if dir := os.Getenv(dockerCliConfig.EnvOverrideConfigDir); dir != "" {
		return dir
	}

	return dockerCliConfig.Dir()
}

// CredentialsStore returns a native store when the config names a credential helper,
// and a file-backed store otherwise.
func CredentialsStore(configFile dockerConfigConfigfile.ConfigFile) dockerConfigCredentials.Store {
	if configFile.CredentialsStore != "" {
		return dockerConfigCredentials.NewNativeStore(&configFile, configFile.CredentialsStore)
	}

	return dockerConfigCredentials.NewFileStore(&configFile)
}

// EncodeAuth Base64 encodes an AuthConfig struct for transmission over HTTP.
func EncodeAuth(authConfig dockerConfigTypes.AuthConfig) (string, error) {
	buf, err := json.Marshal(authConfig)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errFailedMarshalAuthConfig, err)
	}

	return base64.URLEncoding.EncodeToString(buf), nil
}
