package types

import "time"

// ImageTag is the identifier of a published image within a repository.
type ImageTag string

// String returns the tag as a plain string.
func (tag ImageTag) String() string {
	return string(tag)
}

// ImageRecord pairs a tag with the time the registry reports it was published.
type ImageRecord struct {
	Tag         ImageTag  // Published tag.
	PublishedAt time.Time // Registry push timestamp.
}

// IsZero reports whether the record is empty.
func (r ImageRecord) IsZero() bool {
	return r.Tag == "" && r.PublishedAt.IsZero()
}

// TagPage is a bounded tag listing returned by a Catalog.
type TagPage struct {
	Tags      []ImageTag // Tags in registry order.
	Truncated bool       // True if the registry held more tags than the listing limit.
}

// Resolution is the outcome of a successful version resolution.
type Resolution struct {
	Latest    ImageRecord // Most recently published matching tag.
	Listed    int         // Number of tags returned by the listing.
	Matched   int         // Number of tags matching the release pattern.
	Truncated bool        // Listing hit its limit; older tags may have been missed.
}

// Credentials are registry login credentials for pulling images.
type Credentials struct {
	Username      string // Registry user.
	Password      string // Registry password or token.
	ServerAddress string // Registry endpoint the credentials apply to.
}
