package compose

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// DefaultTagEnv is the environment variable carrying the target tag into the compose file.
const DefaultTagEnv = "TAGWATCH_IMAGE_TAG"

// maxOutputInError limits the command output quoted in restart errors.
const maxOutputInError = 2048

// DefaultCommand is the compose invocation used when none is configured.
var DefaultCommand = []string{"docker", "compose"}

// Options configures a Restarter.
type Options struct {
	Command []string // Compose command, e.g. ["docker", "compose"] or ["docker-compose"].
	File    string   // Compose file, empty for the default lookup.
	Project string   // Project name, empty for the default.
	Dir     string   // Working directory, empty for the current one.
	Service string   // Service to restart, empty for the whole project.
	TagEnv  string   // Variable receiving the target tag.
}

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)

// Restarter restarts the managed compose service under a new image tag.
type Restarter struct {
	opts Options
	run  Runner
}

// NewRestarter creates a Restarter that executes compose as a child process.
func NewRestarter(opts Options) *Restarter {
	return NewRestarterWithRunner(opts, execRunner)
}

// NewRestarterWithRunner creates a Restarter using run to execute commands.
func NewRestarterWithRunner(opts Options, run Runner) *Restarter {
	if len(opts.Command) == 0 {
		opts.Command = DefaultCommand
	}

	if opts.TagEnv == "" {
		opts.TagEnv = DefaultTagEnv
	}

	return &Restarter{opts: opts, run: run}
}

// Args returns the arguments passed to the compose command.
func (r *Restarter) Args() []string {
	args := append([]string{}, r.opts.Command[1:]...)

	if r.opts.File != "" {
		args = append(args, "-f", r.opts.File)
	}

	if r.opts.Project != "" {
		args = append(args, "-p", r.opts.Project)
	}

	args = append(args, "up", "-d")

	if r.opts.Service != "" {
		args = append(args, r.opts.Service)
	}

	return args
}

// Restart recreates the service so it runs the image published under tag.
//
// Compose only recreates containers whose configuration changed, so a
// compose file pinning "image: repo:${TAGWATCH_IMAGE_TAG}" restarts exactly
// the managed service.
//
// Parameters:
//   - ctx: Context bounding the command.
//   - tag: Target image tag.
//
// Returns:
//   - error: Non-nil if the command cannot start or exits non-zero.
func (r *Restarter) Restart(ctx context.Context, tag types.ImageTag) error {
	if len(r.opts.Command) == 0 || r.opts.Command[0] == "" {
		return errEmptyCommand
	}

	if tag == "" {
		return errEmptyTag
	}

	env := append(os.Environ(), r.opts.TagEnv+"="+string(tag))
	args := r.Args()

	clog := logrus.WithFields(logrus.Fields{
		"command": r.opts.Command[0] + " " + strings.Join(args, " "),
		"dir":     r.opts.Dir,
		"tag":     tag,
	})
	clog.Debug("Restarting compose service")

	output, err := r.run(ctx, r.opts.Dir, env, r.opts.Command[0], args...)
	if err != nil {
		clog.WithError(err).WithField("output", string(output)).Debug("Compose command failed")

		return fmt.Errorf("%w: %w: %s", errRestartFailed, err, truncate(output))
	}

	clog.Debug("Compose service restarted")

	return nil
}

func execRunner(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env

	return cmd.CombinedOutput()
}

func truncate(output []byte) string {
	output = bytes.TrimSpace(output)
	if len(output) > maxOutputInError {
		output = output[len(output)-maxOutputInError:]
	}

	return string(output)
}
