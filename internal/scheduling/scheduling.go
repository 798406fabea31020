package scheduling

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/tagwatch/internal/actions"
	"github.com/nicholas-fedor/tagwatch/pkg/metrics"
	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

// DefaultUpdateWaitTimeout bounds how long shutdown waits for a running cycle.
const DefaultUpdateWaitTimeout = 60 * time.Second

// CycleFunc runs one reconciliation cycle.
type CycleFunc func(ctx context.Context) types.CycleReport

// Options configures RunOnSchedule.
type Options struct {
	Schedule      string                  // Cron spec, e.g. "@every 3600s".
	UpdateOnStart bool                    // Run one cycle before the first tick.
	Lock          chan bool               // Shared single-slot lock, or nil for a private one.
	Metrics       *metrics.Metrics        // Metrics handler, or nil for metrics.Default().
	WaitTimeout   time.Duration           // Bound on waiting for a running cycle at shutdown.
	Startup       func(nextRun time.Time) // Called once the schedule is known.
}

// NewLock returns an available single-slot lock.
func NewLock() chan bool {
	lock := make(chan bool, 1)
	lock <- true

	return lock
}

// WaitForRunningUpdate waits for any currently running cycle to complete before proceeding with shutdown.
// It checks the lock channel status and blocks with a timeout if a cycle is in progress.
//
// Parameters:
//   - ctx: The context for cancellation, allowing early shutdown on context timeout.
//   - lock: The channel used to synchronize cycles.
//   - timeout: Upper bound on the wait.
func WaitForRunningUpdate(ctx context.Context, lock chan bool, timeout time.Duration) {
	logrus.Debug("Checking lock status before shutdown.")

	if len(lock) == 0 {
		select {
		case v := <-lock:
			lock <- v

			logrus.Debug("Lock acquired, cycle finished.")
		case <-time.After(timeout):
			logrus.Warn("Timeout waiting for running cycle to finish, proceeding with shutdown.")
		case <-ctx.Done():
			logrus.Warn("Context cancelled while waiting for running cycle.")
		}
	} else {
		logrus.Debug("No cycle running, lock available.")
	}

	logrus.Debug("Lock check completed.")
}

// TryCycle runs one cycle if the lock is free and registers its metric.
//
// A tick that finds the lock taken is skipped and registered as a nil metric.
//
// Parameters:
//   - ctx: Cycle context.
//   - lock: Single-slot lock.
//   - cycle: Cycle to run.
//   - m: Metrics handler.
//
// Returns:
//   - types.CycleReport: Report of the cycle, zero if skipped.
//   - bool: False if the cycle was skipped.
func TryCycle(ctx context.Context, lock chan bool, cycle CycleFunc, m *metrics.Metrics) (types.CycleReport, bool) {
	select {
	case v := <-lock:
		defer func() { lock <- v }()

		report := cycle(ctx)
		m.RegisterCycle(metrics.NewMetric(report, actions.FailureKind(report.Err)))

		return report, true
	default:
		m.RegisterCycle(nil)
		logrus.Debug("Skipped cycle, another cycle is already running.")

		return types.CycleReport{}, false
	}
}

// RunOnSchedule runs cycles according to the cron specification until shutdown.
//
// Failures never stop the loop; every tick is followed by the next one.
// On SIGINT, SIGTERM or ctx cancellation the scheduler stops and the running
// cycle is awaited for at most opts.WaitTimeout.
//
// Parameters:
//   - ctx: The context controlling the scheduler's lifecycle.
//   - opts: Schedule, lock, metrics and startup hook.
//   - cycle: Cycle to run on every tick.
//
// Returns:
//   - error: An error if the cron spec is invalid, nil on shutdown.
func RunOnSchedule(ctx context.Context, opts Options, cycle CycleFunc) error {
	lock := opts.Lock
	if lock == nil {
		lock = NewLock()
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.Default()
	}

	waitTimeout := opts.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = DefaultUpdateWaitTimeout
	}

	scheduler := cron.New()

	runCycle := func() {
		TryCycle(ctx, lock, cycle, m)

		if entries := scheduler.Entries(); len(entries) > 0 {
			logrus.WithField("next_run", entries[0].Next).Debug("Scheduled next run")
		}
	}

	if opts.Schedule != "" {
		if err := scheduler.AddFunc(opts.Schedule, runCycle); err != nil {
			return fmt.Errorf("failed to schedule cycles: %w", err)
		}
	}

	var nextRun time.Time
	if entries := scheduler.Entries(); len(entries) > 0 {
		nextRun = entries[0].Schedule.Next(time.Now())
	}

	if opts.Startup != nil {
		opts.Startup(nextRun)
	}

	if opts.UpdateOnStart {
		runCycle()
	}

	scheduler.Start()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	select {
	case <-ctx.Done():
		logrus.Debug("Context canceled, stopping scheduler...")
	case sig := <-interrupt:
		logrus.WithField("signal", sig).Debug("Received interrupt signal, stopping scheduler...")
	}

	scheduler.Stop()
	logrus.Debug("Waiting for running cycle to be finished...")

	WaitForRunningUpdate(context.WithoutCancel(ctx), lock, waitTimeout)

	logrus.Debug("Scheduler stopped.")

	return nil
}

// RunOnce runs a single cycle and returns its error.
//
// Parameters:
//   - ctx: Cycle context.
//   - cycle: Cycle to run.
//   - m: Metrics handler, or nil for metrics.Default().
//
// Returns:
//   - types.CycleReport: Report of the cycle.
//   - error: The cycle error, nil on success.
func RunOnce(ctx context.Context, cycle CycleFunc, m *metrics.Metrics) (types.CycleReport, error) {
	if m == nil {
		m = metrics.Default()
	}

	report, _ := TryCycle(ctx, NewLock(), cycle, m)

	return report, report.Err
}
