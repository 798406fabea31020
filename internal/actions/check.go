package actions

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// SanityOptions describes the compose setup to validate.
type SanityOptions struct {
	ComposeFile string // Compose file, relative to ComposeDir when not absolute.
	ComposeDir  string // Working directory of compose.
	Service     string // Managed service.
}

// CheckForSanity ensures the environment is suitable before starting cycles.
// It verifies the compose directory and file exist and a service is named.
func CheckForSanity(opts SanityOptions) error {
	logrus.Debug("Performing pre-update sanity checks")

	if opts.Service == "" {
		return errNoService
	}

	if opts.ComposeDir != "" {
		info, err := os.Stat(opts.ComposeDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", errComposeDirMissing, opts.ComposeDir)
		}
	}

	if opts.ComposeFile != "" {
		path := opts.ComposeFile
		if !filepath.IsAbs(path) && opts.ComposeDir != "" {
			path = filepath.Join(opts.ComposeDir, path)
		}

		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s: %w", errComposeFileMissing, path, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"compose_file": opts.ComposeFile,
		"compose_dir":  opts.ComposeDir,
		"service":      opts.Service,
	}).Debug("Sanity check passed")

	return nil
}
