package ecr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

const (
	// maxListPageSize is the ListImages page size limit.
	maxListPageSize = 1000
	// maxDescribeBatch is the DescribeImages image id limit per call.
	maxDescribeBatch = 100
	// tokenRefreshMargin renews cached credentials before they expire.
	tokenRefreshMargin = 5 * time.Minute
)

// API is the subset of the ECR client used by Client.
type API interface {
	ListImages(ctx context.Context, params *ecr.ListImagesInput, optFns ...func(*ecr.Options)) (*ecr.ListImagesOutput, error)
	DescribeImages(
		ctx context.Context,
		params *ecr.DescribeImagesInput,
		optFns ...func(*ecr.Options),
	) (*ecr.DescribeImagesOutput, error)
	GetAuthorizationToken(
		ctx context.Context,
		params *ecr.GetAuthorizationTokenInput,
		optFns ...func(*ecr.Options),
	) (*ecr.GetAuthorizationTokenOutput, error)
}

// Client queries one ECR registry.
//
// It implements types.Catalog and types.CredentialSource.
type Client struct {
	api        API
	registryID string
	now        func() time.Time

	mu        sync.Mutex
	cached    types.Credentials
	expiresAt time.Time
}

// NewClient wraps an ECR API.
//
// Parameters:
//   - api: ECR service client.
//   - registryID: Registry (account) id, empty for the caller's default registry.
//
// Returns:
//   - *Client: Catalog bound to the registry.
func NewClient(api API, registryID string) *Client {
	return &Client{api: api, registryID: registryID, now: time.Now}
}

// NewFromConfig creates a Client using the default AWS credential chain.
//
// Parameters:
//   - ctx: Context for loading shared configuration.
//   - region: AWS region, empty to use the environment's.
//   - registryID: Registry (account) id, may be empty.
//
// Returns:
//   - *Client: Catalog bound to the registry.
//   - error: Non-nil if the AWS configuration cannot be loaded.
func NewFromConfig(ctx context.Context, region, registryID string) (*Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errLoadConfig, err)
	}

	logrus.WithFields(logrus.Fields{
		"region":      cfg.Region,
		"registry_id": registryID,
	}).Debug("Created ECR client")

	return NewClient(ecr.NewFromConfig(cfg), registryID), nil
}

// ListTags lists up to limit tags of repository, tagged images only.
//
// Parameters:
//   - ctx: Context for the page requests.
//   - repository: Repository name.
//   - limit: Maximum number of tags to return.
//
// Returns:
//   - types.TagPage: Tags and whether the registry held more.
//   - error: Non-nil if a page request fails.
func (c *Client) ListTags(ctx context.Context, repository string, limit int) (types.TagPage, error) {
	input := &ecr.ListImagesInput{
		RepositoryName: aws.String(repository),
		RegistryId:     c.registry(),
		Filter:         &ecrtypes.ListImagesFilter{TagStatus: ecrtypes.TagStatusTagged},
	}

	paginator := ecr.NewListImagesPaginator(c.api, input, func(o *ecr.ListImagesPaginatorOptions) {
		o.Limit = int32(min(limit, maxListPageSize)) //nolint:gosec // bounded by maxListPageSize
	})

	page := types.TagPage{Tags: make([]types.ImageTag, 0, min(limit, maxListPageSize))}

	for paginator.HasMorePages() && len(page.Tags) <= limit {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			logAPIError(err, repository, "ListImages")

			return types.TagPage{}, fmt.Errorf("%w: %s: %w", errListImages, repository, err)
		}

		for _, id := range output.ImageIds {
			if tag := aws.ToString(id.ImageTag); tag != "" {
				page.Tags = append(page.Tags, types.ImageTag(tag))
			}
		}
	}

	if len(page.Tags) > limit {
		page.Tags = page.Tags[:limit]
		page.Truncated = true
	} else if paginator.HasMorePages() {
		page.Truncated = true
	}

	logrus.WithFields(logrus.Fields{
		"repository": repository,
		"tags":       len(page.Tags),
		"truncated":  page.Truncated,
	}).Debug("Listed repository tags")

	return page, nil
}

// DescribeTags returns the push time of each tag, batching requests by 100 image ids.
//
// Every tag of a returned image detail that was requested is mapped to the
// image's push time. Details without a push time are returned with a zero
// PublishedAt for the caller to reject.
//
// Parameters:
//   - ctx: Context for the batch requests.
//   - repository: Repository name.
//   - tags: Tags to describe.
//
// Returns:
//   - []types.ImageRecord: One record per described tag.
//   - error: Non-nil if a batch request fails.
func (c *Client) DescribeTags(
	ctx context.Context,
	repository string,
	tags []types.ImageTag,
) ([]types.ImageRecord, error) {
	wanted := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		wanted[string(tag)] = struct{}{}
	}

	records := make([]types.ImageRecord, 0, len(tags))

	for start := 0; start < len(tags); start += maxDescribeBatch {
		batch := tags[start:min(start+maxDescribeBatch, len(tags))]

		ids := make([]ecrtypes.ImageIdentifier, 0, len(batch))
		for _, tag := range batch {
			ids = append(ids, ecrtypes.ImageIdentifier{ImageTag: aws.String(string(tag))})
		}

		output, err := c.api.DescribeImages(ctx, &ecr.DescribeImagesInput{
			RepositoryName: aws.String(repository),
			RegistryId:     c.registry(),
			ImageIds:       ids,
		})
		if err != nil {
			logAPIError(err, repository, "DescribeImages")

			return nil, fmt.Errorf("%w: %s: %w", errDescribeImages, repository, err)
		}

		for _, detail := range output.ImageDetails {
			pushedAt := aws.ToTime(detail.ImagePushedAt)

			for _, tag := range detail.ImageTags {
				if _, ok := wanted[tag]; !ok {
					continue
				}

				delete(wanted, tag)
				records = append(records, types.ImageRecord{
					Tag:         types.ImageTag(tag),
					PublishedAt: pushedAt,
				})
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"repository": repository,
		"requested":  len(tags),
		"described":  len(records),
	}).Debug("Described repository tags")

	return records, nil
}

// Credentials returns pull credentials from an ECR authorization token.
//
// Tokens are cached until tokenRefreshMargin before their expiry.
func (c *Client) Credentials(ctx context.Context) (types.Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached.Password != "" && c.now().Before(c.expiresAt.Add(-tokenRefreshMargin)) {
		return c.cached, nil
	}

	input := &ecr.GetAuthorizationTokenInput{}
	if c.registryID != "" {
		input.RegistryIds = []string{c.registryID} //nolint:staticcheck // still honored for cross-account registries
	}

	output, err := c.api.GetAuthorizationToken(ctx, input)
	if err != nil {
		logAPIError(err, "", "GetAuthorizationToken")

		return types.Credentials{}, fmt.Errorf("%w: %w", errAuthorizationToken, err)
	}

	if len(output.AuthorizationData) == 0 {
		return types.Credentials{}, fmt.Errorf("%w: no authorization data", errAuthorizationToken)
	}

	data := output.AuthorizationData[0]

	creds, err := decodeToken(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return types.Credentials{}, err
	}

	creds.ServerAddress = aws.ToString(data.ProxyEndpoint)

	c.cached = creds
	c.expiresAt = aws.ToTime(data.ExpiresAt)

	logrus.WithFields(logrus.Fields{
		"server":     creds.ServerAddress,
		"expires_at": c.expiresAt,
	}).Debug("Obtained ECR authorization token")

	return creds, nil
}

func (c *Client) registry() *string {
	if c.registryID == "" {
		return nil
	}

	return aws.String(c.registryID)
}

// decodeToken splits a base64 "user:password" token.
func decodeToken(token string) (types.Credentials, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return types.Credentials{}, fmt.Errorf("%w: %w", errMalformedToken, err)
	}

	user, password, ok := strings.Cut(string(raw), ":")
	if !ok || user == "" || password == "" {
		return types.Credentials{}, errMalformedToken
	}

	return types.Credentials{Username: user, Password: password}, nil
}

// logAPIError logs the service error code of a failed call.
func logAPIError(err error, repository, operation string) {
	fields := logrus.Fields{
		"operation":  operation,
		"repository": repository,
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		fields["code"] = apiErr.ErrorCode()
		fields["fault"] = apiErr.ErrorFault().String()
	}

	logrus.WithError(err).WithFields(fields).Debug("ECR request failed")
}
