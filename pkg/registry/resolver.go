package registry

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// DefaultMaxResults bounds a tag listing when no limit is configured.
const DefaultMaxResults = 1000

// Options configures a Resolver.
type Options struct {
	Repository string      // Repository name within the registry.
	Pattern    *TagPattern // Release tag pattern.
	MaxResults int         // Upper bound on listed tags.
}

// Resolver selects the most recently published release tag of one repository.
type Resolver struct {
	catalog types.Catalog
	opts    Options
}

// NewResolver creates a Resolver over catalog.
//
// Parameters:
//   - catalog: Registry query interface.
//   - opts: Repository, pattern and listing bound. A zero MaxResults uses DefaultMaxResults.
//
// Returns:
//   - *Resolver: Configured resolver.
//   - error: Non-nil if the repository or pattern is missing or MaxResults is negative.
func NewResolver(catalog types.Catalog, opts Options) (*Resolver, error) {
	switch {
	case catalog == nil:
		return nil, fmt.Errorf("%w: catalog is nil", errInvalidOptions)
	case opts.Repository == "":
		return nil, fmt.Errorf("%w: repository is empty", errInvalidOptions)
	case opts.Pattern == nil:
		return nil, fmt.Errorf("%w: pattern is nil", errInvalidOptions)
	case opts.MaxResults < 0:
		return nil, fmt.Errorf("%w: max results %d", errInvalidOptions, opts.MaxResults)
	}

	if opts.MaxResults == 0 {
		opts.MaxResults = DefaultMaxResults
	}

	return &Resolver{catalog: catalog, opts: opts}, nil
}

// Resolve returns the matching tag with the greatest publication time.
//
// Either a full selection or an error is returned, never a partial result.
// Truncated listings are not errors; they are flagged on the Resolution.
//
// Parameters:
//   - ctx: Context bounding the registry calls.
//
// Returns:
//   - types.Resolution: Selected record and listing statistics.
//   - error: ErrRegistry on query failure or malformed data, ErrNoMatchingTag when nothing matches.
func (r *Resolver) Resolve(ctx context.Context) (types.Resolution, error) {
	clog := logrus.WithFields(logrus.Fields{
		"repository": r.opts.Repository,
		"pattern":    r.opts.Pattern.String(),
	})

	page, err := r.catalog.ListTags(ctx, r.opts.Repository, r.opts.MaxResults)
	if err != nil {
		clog.WithError(err).Debug("Failed to list tags")

		return types.Resolution{}, fmt.Errorf("%w: listing tags of %s: %w", ErrRegistry, r.opts.Repository, err)
	}

	if page.Truncated {
		clog.WithField("max_results", r.opts.MaxResults).
			Warn("Tag listing reached its limit, older release tags may have been missed")
	}

	matching := r.filter(page.Tags)
	resolution := types.Resolution{
		Listed:    len(page.Tags),
		Matched:   len(matching),
		Truncated: page.Truncated,
	}

	clog.WithFields(logrus.Fields{
		"listed":  resolution.Listed,
		"matched": resolution.Matched,
	}).Debug("Filtered tag listing")

	if len(matching) == 0 {
		return resolution, fmt.Errorf("%w: %s in %s", ErrNoMatchingTag, r.opts.Pattern, r.opts.Repository)
	}

	records, err := r.catalog.DescribeTags(ctx, r.opts.Repository, matching)
	if err != nil {
		clog.WithError(err).Debug("Failed to describe tags")

		return types.Resolution{}, fmt.Errorf("%w: describing tags of %s: %w", ErrRegistry, r.opts.Repository, err)
	}

	if err := validateRecords(matching, records); err != nil {
		return types.Resolution{}, fmt.Errorf("%w: %s: %w", ErrRegistry, r.opts.Repository, err)
	}

	resolution.Latest = r.selectLatest(records)

	clog.WithFields(logrus.Fields{
		"tag":          resolution.Latest.Tag,
		"published_at": resolution.Latest.PublishedAt,
	}).Debug("Resolved latest release tag")

	return resolution, nil
}

// filter keeps the first occurrence of each tag matching the pattern.
func (r *Resolver) filter(tags []types.ImageTag) []types.ImageTag {
	seen := make(map[types.ImageTag]struct{}, len(tags))
	matching := make([]types.ImageTag, 0, len(tags))

	for _, tag := range tags {
		if _, dup := seen[tag]; dup || !r.opts.Pattern.Match(tag) {
			continue
		}

		seen[tag] = struct{}{}
		matching = append(matching, tag)
	}

	return matching
}

// validateRecords checks that every requested tag was described exactly with a timestamp
// and that nothing unrequested came back.
func validateRecords(requested []types.ImageTag, records []types.ImageRecord) error {
	want := make(map[types.ImageTag]bool, len(requested))
	for _, tag := range requested {
		want[tag] = false
	}

	for _, record := range records {
		described, ok := want[record.Tag]
		if !ok {
			return fmt.Errorf("%w: unexpected tag %q", errMalformedRecord, record.Tag)
		}

		if record.PublishedAt.IsZero() {
			return fmt.Errorf("%w: tag %q has no publication time", errMalformedRecord, record.Tag)
		}

		if !described {
			want[record.Tag] = true
		}
	}

	for _, tag := range requested {
		if !want[tag] {
			return fmt.Errorf("%w: %q", errMissingRecord, tag)
		}
	}

	return nil
}

// selectLatest returns the record with the greatest publication time.
func (r *Resolver) selectLatest(records []types.ImageRecord) types.ImageRecord {
	var best types.ImageRecord

	for i, record := range records {
		if i == 0 || r.newer(record, best) {
			best = record
		}
	}

	return best
}

// newer orders records by publication time, then build id, then tag text.
func (r *Resolver) newer(candidate, current types.ImageRecord) bool {
	if !candidate.PublishedAt.Equal(current.PublishedAt) {
		return candidate.PublishedAt.After(current.PublishedAt)
	}

	candidateBuild, candidateOK := r.opts.Pattern.BuildNumber(candidate.Tag)
	currentBuild, currentOK := r.opts.Pattern.BuildNumber(current.Tag)

	if candidateOK && currentOK && candidateBuild != currentBuild {
		return candidateBuild > currentBuild
	}

	return candidate.Tag > current.Tag
}
