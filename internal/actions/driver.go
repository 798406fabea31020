package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/internal/util"
	"github.com/nicholas-fedor/tagwatch/pkg/registry"
	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// Failure kinds reported by FailureKind.
const (
	FailureNoMatchingTag = "no_matching_tag"
	FailureRegistry      = "registry"
	FailureUpdate        = "update"
	FailureOther         = "other"
)

// Timeouts bound the blocking calls of one cycle. Zero disables a bound.
type Timeouts struct {
	Registry time.Duration // Tag resolution.
	Pull     time.Duration // Image pull.
	Restart  time.Duration // Service restart.
}

// Dependencies are the collaborators of a Driver. Recorder is optional.
type Dependencies struct {
	Resolver  types.Resolver
	Puller    types.Puller
	Restarter types.Restarter
	Recorder  types.Recorder
}

// Driver performs reconciliation cycles for one managed service.
//
// A Driver is not safe for concurrent Cycle calls; callers serialize cycles.
// Status and LastReport may be called concurrently with a running cycle.
type Driver struct {
	deps     Dependencies
	deployed *types.DeployedVersion
	timeouts Timeouts
	now      func() time.Time

	mu    sync.RWMutex
	state types.State
	last  types.CycleReport
}

// NewDriver creates a Driver.
//
// Parameters:
//   - deps: Resolver, puller, restarter and optional recorder.
//   - deployed: Deployed version owned by the driver from now on.
//   - timeouts: Per-call bounds.
//
// Returns:
//   - *Driver: Idle driver.
//   - error: Non-nil if a required dependency is missing.
func NewDriver(deps Dependencies, deployed *types.DeployedVersion, timeouts Timeouts) (*Driver, error) {
	switch {
	case deps.Resolver == nil:
		return nil, fmt.Errorf("%w: resolver", errMissingDependency)
	case deps.Puller == nil:
		return nil, fmt.Errorf("%w: puller", errMissingDependency)
	case deps.Restarter == nil:
		return nil, fmt.Errorf("%w: restarter", errMissingDependency)
	case deployed == nil:
		return nil, fmt.Errorf("%w: deployed version", errMissingDependency)
	}

	return &Driver{
		deps:     deps,
		deployed: deployed,
		timeouts: timeouts,
		now:      time.Now,
		state:    types.StateIdle,
	}, nil
}

// Cycle runs one reconciliation cycle and returns its report.
//
// The deployed version changes only when both pull and restart succeed.
// Resolution failures perform no pull or restart. Errors are reported, never
// returned, so the caller keeps scheduling cycles.
//
// Parameters:
//   - ctx: Context for the cycle; cancellation aborts the current step.
//
// Returns:
//   - types.CycleReport: Outcome of the cycle.
func (d *Driver) Cycle(ctx context.Context) types.CycleReport {
	previous, _ := d.deployed.Get()
	report := types.CycleReport{
		StartedAt: d.now(),
		State:     types.StateIdle,
		Previous:  previous,
	}

	defer func() {
		report.Duration = d.now().Sub(report.StartedAt)
		d.finish(ctx, report)
	}()

	d.transition(&report, types.StateChecking)

	resolution, err := d.resolve(ctx)
	report.Truncated = resolution.Truncated

	if err != nil {
		report.Err = err

		return report
	}

	report.Target = resolution.Latest.Tag

	if !d.deployed.Differs(report.Target) {
		d.transition(&report, types.StateUpToDate)

		return report
	}

	d.transition(&report, types.StateUpdating)

	if err := d.update(ctx, report.Target); err != nil {
		report.Err = err

		return report
	}

	d.deployed.Set(report.Target)
	d.transition(&report, types.StateRestarted)

	return report
}

// Deployed returns the deployed version the driver believes is running.
func (d *Driver) Deployed() (types.ImageTag, bool) {
	return d.deployed.Get()
}

// Status returns the current state and the report of the last finished cycle.
func (d *Driver) Status() (types.State, types.CycleReport) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.state, d.last
}

func (d *Driver) resolve(ctx context.Context) (types.Resolution, error) {
	rctx, cancel := withTimeout(ctx, d.timeouts.Registry)
	defer cancel()

	return d.deps.Resolver.Resolve(rctx)
}

// update pulls then restarts, each under its own timeout.
func (d *Driver) update(ctx context.Context, target types.ImageTag) error {
	pctx, cancel := withTimeout(ctx, d.timeouts.Pull)
	err := d.deps.Puller.Pull(pctx, target)

	cancel()

	if err != nil {
		return fmt.Errorf("%w: %w: %s: %w", ErrUpdate, errPullFailed, target, err)
	}

	rctx, cancel := withTimeout(ctx, d.timeouts.Restart)
	defer cancel()

	if err := d.deps.Restarter.Restart(rctx, target); err != nil {
		return fmt.Errorf("%w: %w: %s: %w", ErrUpdate, errRestartFailed, target, err)
	}

	return nil
}

func (d *Driver) transition(report *types.CycleReport, next types.State) {
	report.State = next

	d.mu.Lock()
	d.state = next
	d.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"state":    next,
		"previous": report.Previous,
		"target":   report.Target,
	}).Debug("Reconciliation state changed")
}

// finish logs the outcome, returns the driver to idle and records the report.
func (d *Driver) finish(ctx context.Context, report types.CycleReport) {
	fields := logrus.Fields{
		"state":    report.State,
		"deployed": report.Previous,
		"target":   report.Target,
		"duration": util.FormatDuration(report.Duration),
	}

	switch {
	case report.Err != nil:
		logrus.WithError(report.Err).
			WithFields(fields).
			WithField("kind", FailureKind(report.Err)).
			Error("Reconciliation cycle failed")
	case report.Updated():
		logrus.WithFields(fields).Info("Service restarted on new release")
	default:
		logrus.WithFields(fields).Debug("Service is up to date")
	}

	d.mu.Lock()
	d.state = types.StateIdle
	d.last = report
	d.mu.Unlock()

	logrus.WithField("state", types.StateIdle).Debug("Reconciliation state changed")

	if d.deps.Recorder == nil {
		return
	}

	if err := d.deps.Recorder.Record(context.WithoutCancel(ctx), report); err != nil {
		logrus.WithError(err).Warn("Failed to record cycle history")
	}
}

// FailureKind classifies a cycle error.
//
// Parameters:
//   - err: Error from a CycleReport.
//
// Returns:
//   - string: One of the Failure* constants, or empty for nil.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, registry.ErrNoMatchingTag):
		return FailureNoMatchingTag
	case errors.Is(err, registry.ErrRegistry):
		return FailureRegistry
	case errors.Is(err, ErrUpdate):
		return FailureUpdate
	default:
		return FailureOther
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}
