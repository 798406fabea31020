package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nicholas-fedor/tagwatch/pkg/types"
)

var metrics *Metrics

// Metric holds the data points of one reconciliation cycle.
type Metric struct {
	Updated     bool      // Service was restarted on a new release.
	FailureKind string    // Failure classification, empty on success.
	Truncated   bool      // Tag listing hit its limit.
	FinishedAt  time.Time // End of the cycle.
}

// Metrics handles processing and exposing cycle metrics.
type Metrics struct {
	channel      chan *Metric           // Channel for queuing metrics.
	total        prometheus.Counter     // Counter for total cycles.
	skipped      prometheus.Counter     // Counter for skipped cycles.
	updates      prometheus.Counter     // Counter for service restarts on new releases.
	failures     *prometheus.CounterVec // Counter for failed cycles by kind.
	truncated    prometheus.Counter     // Counter for truncated tag listings.
	lastCycle    prometheus.Gauge       // Gauge for the end time of the last cycle.
	dropped      prometheus.Counter     // Counter for dropped metrics.
	stopCh       chan struct{}          // Channel for shutdown signaling.
	shutdownOnce sync.Once              // Ensures shutdown is called only once.
	//nolint:containedctx
	ctx    context.Context    // Context for cancellation.
	cancel context.CancelFunc // Cancel function for the context.
}

// NewWithRegistry creates a new Metrics handler with a custom Prometheus registry.
//
// Parameters:
//   - registry: Prometheus registerer to use for metric registration.
//
// Returns:
//   - (*Metrics, error): Metrics handler with Prometheus metrics and goroutine, or an error if registration fails.
func NewWithRegistry(registry prometheus.Registerer) (*Metrics, error) {
	// channelBufferSize sets the metrics channel capacity.
	const channelBufferSize = 10

	ctx, cancel := context.WithCancel(context.Background())

	metrics := &Metrics{
		total: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tagwatch_cycles_total",
			Help: "Number of reconciliation cycles since tagwatch started",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tagwatch_cycles_skipped_total",
			Help: "Number of cycles skipped because the previous one was still running",
		}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tagwatch_updates_total",
			Help: "Number of times the service was restarted on a new release",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tagwatch_cycle_failures_total",
			Help: "Number of failed cycles by failure kind",
		}, []string{"kind"}),
		truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tagwatch_tag_listing_truncated_total",
			Help: "Number of cycles whose tag listing reached the configured limit",
		}),
		lastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tagwatch_last_cycle_timestamp_seconds",
			Help: "Unix time the last reconciliation cycle finished",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tagwatch_metrics_dropped_total",
			Help: "Number of metrics dropped due to full channel",
		}),
		channel: make(chan *Metric, channelBufferSize),
		stopCh:  make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	metricsList := []prometheus.Collector{
		metrics.total,
		metrics.skipped,
		metrics.updates,
		metrics.failures,
		metrics.truncated,
		metrics.lastCycle,
		metrics.dropped,
	}
	for _, m := range metricsList {
		err := registry.Register(m)
		if err != nil {
			alreadyRegisteredError := &prometheus.AlreadyRegisteredError{}
			if errors.As(err, alreadyRegisteredError) {
				cancel()

				return nil, fmt.Errorf("failed to register metric: %w", err)
			}
		}
	}

	go metrics.HandleUpdate()

	return metrics, nil
}

// NewMetric creates a Metric from a cycle report.
//
// Parameters:
//   - report: Cycle report.
//   - failureKind: Classification of report.Err, empty on success.
//
// Returns:
//   - *Metric: New metric instance.
func NewMetric(report types.CycleReport, failureKind string) *Metric {
	return &Metric{
		Updated:     report.Updated(),
		FailureKind: failureKind,
		Truncated:   report.Truncated,
		FinishedAt:  report.StartedAt.Add(report.Duration),
	}
}

// QueueIsEmpty checks if the metrics channel is empty.
//
// Returns:
//   - bool: True if empty, false otherwise.
func (m *Metrics) QueueIsEmpty() bool {
	return len(m.channel) == 0
}

// Register attempts to enqueue a metric for processing.
// If the channel is full, the metric is dropped and the dropped counter is incremented.
//
// Parameters:
//   - metric: Metric to register.
func (m *Metrics) Register(metric *Metric) {
	select {
	case m.channel <- metric:
	default:
		m.dropped.Inc()
	}
}

// Default initializes or returns the singleton Metrics handler. It panics on registration failure,
// such as duplicate registration against the default registry.
//
// Returns:
//   - *Metrics: Metrics handler with Prometheus metrics and goroutine.
func Default() *Metrics {
	if metrics != nil {
		return metrics
	}

	var err error

	metrics, err = NewWithRegistry(prometheus.DefaultRegisterer)
	if err != nil {
		panic(err)
	}

	return metrics
}

// RegisterCycle enqueues a cycle metric. A nil metric records a skipped cycle.
//
// Parameters:
//   - metric: Metric to register.
func (m *Metrics) RegisterCycle(metric *Metric) {
	m.Register(metric)
}

// Shutdown gracefully stops the metrics processing goroutine.
// This method is idempotent and can be called multiple times safely.
func (m *Metrics) Shutdown() {
	m.shutdownOnce.Do(func() {
		close(m.stopCh)
		m.cancel()
	})
}

// HandleUpdate processes metrics from the channel.
func (m *Metrics) HandleUpdate() {
	for {
		select {
		case change, ok := <-m.channel:
			if !ok {
				return
			}

			m.apply(change)
		case <-m.stopCh:
			return
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Metrics) apply(change *Metric) {
	m.total.Inc()

	if change == nil {
		// Cycle was skipped while another was running.
		m.skipped.Inc()

		return
	}

	if change.Updated {
		m.updates.Inc()
	}

	if change.FailureKind != "" {
		m.failures.WithLabelValues(change.FailureKind).Inc()
	}

	if change.Truncated {
		m.truncated.Inc()
	}

	if !change.FinishedAt.IsZero() {
		m.lastCycle.Set(float64(change.FinishedAt.Unix()))
	}
}
