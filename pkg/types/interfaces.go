package types

import "context"

// Catalog is the read-only registry query interface.
type Catalog interface {
	// ListTags returns at most limit tags of repository.
	ListTags(ctx context.Context, repository string, limit int) (TagPage, error)
	// DescribeTags returns the publication record of each requested tag.
	DescribeTags(ctx context.Context, repository string, tags []ImageTag) ([]ImageRecord, error)
}

// Resolver selects the most recently published release tag.
type Resolver interface {
	Resolve(ctx context.Context) (Resolution, error)
}

// Puller fetches the image for a tag of the managed repository.
type Puller interface {
	Pull(ctx context.Context, tag ImageTag) error
}

// Restarter restarts the managed service under a tag.
type Restarter interface {
	Restart(ctx context.Context, tag ImageTag) error
}

// Recorder persists cycle reports for auditing.
type Recorder interface {
	Record(ctx context.Context, report CycleReport) error
}

// CredentialSource issues short-lived registry credentials.
type CredentialSource interface {
	Credentials(ctx context.Context) (Credentials, error)
}
