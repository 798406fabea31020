// Package meta holds build information set at link time.
package meta

var (
	// Version is the tagwatch release, overridden with
	// -ldflags "-X github.com/nicholas-fedor/tagwatch/internal/meta.Version=...".
	Version = "v0.0.0-unknown"

	// UserAgent identifies tagwatch to the Docker API.
	UserAgent string
)

func init() {
	UserAgent = "Tagwatch/" + Version
}
